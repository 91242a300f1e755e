package boxmodel

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/reference"
)

// recurrence iterates the exact step by hand, in Tg, and returns ppb.
func recurrence(n int, m0 float64, emisAt, kAt func(int) float64) []float64 {
	m := make([]float64, n)
	m[0] = m0 * dynamo.AtmConvert
	for t := 0; t < n-1; t++ {
		k := kAt(t)
		m[t+1] = m[t]*math.Exp(-k) + emisAt(t)/k*(1-math.Exp(-k))
	}
	for i := range m {
		m[i] /= dynamo.AtmConvert
	}
	return m
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

var _ = Describe("Reference data", func() {
	It("should return identical series on every call", func() {
		obs1, years1 := reference.NOAA()
		obs2, years2 := reference.NOAA()
		Expect(obs1).To(Equal(obs2))
		Expect(years1).To(Equal(years2))
	})

	It("should cover 2005 through 2022", func() {
		_, years := reference.NOAA()
		Expect(years).To(Equal(dynamo.YearRange(2005, 2022)))
	})
})

var _ = Describe("Run", func() {
	Context("with scalar emissions and loss rate", func() {
		It("should decay exponentially without emissions", func() {
			years := dynamo.YearRange(2005, 2010)
			out, err := Run(years, 1800, dynamo.Scalar(0), dynamo.Scalar(0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(6))

			for t, v := range out {
				Expect(v).To(BeNumerically("~", 1800*math.Exp(-0.1*float64(t)), 1e-9))
				if t > 0 {
					Expect(v).To(BeNumerically("<", out[t-1]))
				}
			}
		})

		It("should converge to the steady state", func() {
			years := dynamo.YearRange(2000, 2049)
			out, err := Run(years, 1800, dynamo.Scalar(5), dynamo.Scalar(0.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(50))
			Expect(out[49]).To(BeNumerically("~", 5/0.5/2.767, 1e-6))

			ss, err := SteadyState(5, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(out[49]).To(BeNumerically("~", ss, 1e-6))
		})

		It("should match the step-by-step recurrence", func() {
			years := dynamo.YearRange(2005, 2022)
			out, err := Run(years, 1776, dynamo.Scalar(550), dynamo.Scalar(1.0/9.1))
			Expect(err).NotTo(HaveOccurred())

			want := recurrence(len(years), 1776, constant(550), constant(1.0/9.1))
			for t := range want {
				Expect(out[t]).To(BeNumerically("~", want[t], 1e-9))
			}
		})

		It("should use the step index even when years have gaps", func() {
			years := dynamo.Years{2000, 2005, 2010}
			out, err := Run(years, 1800, dynamo.Scalar(0), dynamo.Scalar(0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(out[2]).To(BeNumerically("~", 1800*math.Exp(-0.2), 1e-9))
		})
	})

	Context("with time-varying emissions and a scalar loss rate", func() {
		It("should match manual application of the recurrence", func() {
			years := dynamo.YearRange(2005, 2009)
			emis := []float64{10, 10, 10, 10, 10}
			out, err := Run(years, 1776, dynamo.TimeVarying(emis...), dynamo.Scalar(0.2))
			Expect(err).NotTo(HaveOccurred())

			m := 1776 * 2.767
			Expect(out[0]).To(BeNumerically("~", 1776, 1e-9))
			for t := 0; t < 4; t++ {
				m = m*math.Exp(-0.2) + emis[t]/0.2*(1-math.Exp(-0.2))
				Expect(out[t+1]).To(BeNumerically("~", m/2.767, 1e-9))
			}
		})
	})

	Context("with a time-varying loss rate", func() {
		It("should follow per-step loss rates with scalar emissions", func() {
			years := dynamo.YearRange(2005, 2008)
			k := []float64{0.1, 0.12, 0.09}
			out, err := Run(years, 1790, dynamo.Scalar(540), dynamo.TimeVarying(k...))
			Expect(err).NotTo(HaveOccurred())

			want := recurrence(4, 1790, constant(540), func(t int) float64 { return k[t] })
			for t := range want {
				Expect(out[t]).To(BeNumerically("~", want[t], 1e-9))
			}
		})

		It("should follow per-step values of both forcings", func() {
			years := dynamo.YearRange(2005, 2008)
			emis := []float64{520, 540, 560, 580}
			k := []float64{0.1, 0.11, 0.12, 0.13}
			out, err := Run(years, 1776, dynamo.TimeVarying(emis...), dynamo.TimeVarying(k...))
			Expect(err).NotTo(HaveOccurred())

			want := recurrence(4, 1776, func(t int) float64 { return emis[t] }, func(t int) float64 { return k[t] })
			for t := range want {
				Expect(out[t]).To(BeNumerically("~", want[t], 1e-9))
			}
		})

		It("should accept forcings with exactly N-1 values", func() {
			years := dynamo.YearRange(2005, 2009)
			_, err := Run(years, 1776, dynamo.TimeVarying(1, 2, 3, 4), dynamo.TimeVarying(0.1, 0.1, 0.1, 0.1))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("length invariant", func() {
		DescribeTable("should return one value per year starting at m0",
			func(emis, k dynamo.Forcing) {
				years := dynamo.YearRange(1990, 2020)
				out, err := Run(years, 1714.3, emis, k)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(len(years)))
				Expect(out[0]).To(BeNumerically("~", 1714.3, 1e-9))
			},
			Entry("scalar/scalar", dynamo.Scalar(500), dynamo.Scalar(0.11)),
			Entry("time-varying/scalar", dynamo.TimeVarying(make30(500)...), dynamo.Scalar(0.11)),
			Entry("scalar/time-varying", dynamo.Scalar(500), dynamo.TimeVarying(make30(0.11)...)),
			Entry("time-varying/time-varying", dynamo.TimeVarying(make30(500)...), dynamo.TimeVarying(make30(0.11)...)),
		)

		It("should return m0 for a single year", func() {
			out, err := Run(dynamo.Years{2005}, 1776, dynamo.TimeVarying(), dynamo.TimeVarying())
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(dynamo.Concentration{dynamo.ToPPB(dynamo.ToMass(1776))}))
		})
	})

	Context("failure conditions", func() {
		It("should reject a zero scalar loss rate", func() {
			out, err := Run(dynamo.YearRange(2005, 2010), 1800, dynamo.Scalar(5), dynamo.Scalar(0))
			Expect(err).To(MatchError(dynamo.ErrZeroLossRate))
			Expect(out).To(BeNil())

			var de *dynamo.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
		})

		It("should report the step of a zero time-varying loss rate", func() {
			_, err := Run(dynamo.YearRange(2005, 2008), 1800, dynamo.Scalar(5), dynamo.TimeVarying(0.1, 0, 0.1))
			Expect(err).To(MatchError(dynamo.ErrZeroLossRate))

			var de *dynamo.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Step).To(Equal(1))
		})

		It("should ignore a zero loss rate past the last step", func() {
			_, err := Run(dynamo.YearRange(2005, 2007), 1800, dynamo.Scalar(5), dynamo.TimeVarying(0.1, 0.1, 0))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject short time-varying emissions", func() {
			_, err := Run(dynamo.YearRange(2005, 2009), 1800, dynamo.TimeVarying(10, 10), dynamo.Scalar(0.2))
			Expect(err).To(MatchError(dynamo.ErrShortForcing))
			Expect(err.Error()).To(ContainSubstring("emissions"))
		})

		It("should reject a short time-varying loss rate", func() {
			_, err := Run(dynamo.YearRange(2005, 2009), 1800, dynamo.Scalar(10), dynamo.TimeVarying(0.2))
			Expect(err).To(MatchError(dynamo.ErrShortForcing))
			Expect(err.Error()).To(ContainSubstring("loss rate"))
		})

		It("should reject an empty year series", func() {
			_, err := Run(dynamo.Years{}, 1800, dynamo.Scalar(10), dynamo.Scalar(0.1))
			Expect(err).To(MatchError(dynamo.ErrEmptyYears))
		})

		It("should not guard negative loss rates", func() {
			_, err := Run(dynamo.YearRange(2005, 2009), 1800, dynamo.Scalar(10), dynamo.Scalar(-0.1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a zero loss rate for the steady state", func() {
			_, err := SteadyState(5, 0)
			Expect(err).To(MatchError(dynamo.ErrZeroLossRate))
		})
	})

	It("should be safe for concurrent callers", func() {
		years := dynamo.YearRange(2005, 2022)
		emis := dynamo.TimeVarying(make30(550)...)
		want, err := Run(years, 1776, emis, dynamo.Scalar(0.11))
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		results := make([]dynamo.Concentration, 8)
		for i := range results {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx], _ = Run(years, 1776, emis, dynamo.Scalar(0.11))
			}(i)
		}
		wg.Wait()

		for _, got := range results {
			Expect(got).To(Equal(want))
		}
	})

	It("should take its inputs from Params", func() {
		years := dynamo.YearRange(2005, 2010)
		p := dynamo.Params{M0: 1800, Emissions: dynamo.Scalar(0), LossRate: dynamo.Scalar(0.1)}
		got, err := RunParams(years, p)
		Expect(err).NotTo(HaveOccurred())
		want, _ := Run(years, 1800, dynamo.Scalar(0), dynamo.Scalar(0.1))
		Expect(got).To(Equal(want))
	})
})

func make30(v float64) []float64 {
	out := make([]float64, 30)
	for i := range out {
		out[i] = v
	}
	return out
}
