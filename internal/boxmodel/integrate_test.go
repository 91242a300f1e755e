package boxmodel

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/integrators"
)

var _ = Describe("Integrate", func() {
	var (
		years dynamo.Years
		emis  dynamo.Forcing
		k     dynamo.Forcing
		exact dynamo.Concentration
	)

	BeforeEach(func() {
		years = dynamo.YearRange(2005, 2022)
		emis = dynamo.TimeVarying(make30(550)...)
		k = dynamo.Scalar(1.0 / 9.1)

		var err error
		exact, err = Run(years, 1776, emis, k)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reproduce Run with the exact integrator", func() {
		out, err := Integrate(years, 1776, emis, k, integrators.NewExact(), 1)
		Expect(err).NotTo(HaveOccurred())
		for t := range exact {
			Expect(out[t]).To(BeNumerically("~", exact[t], 1e-9))
		}
	})

	It("should approach Run with RK4 substeps", func() {
		out, err := Integrate(years, 1776, emis, k, integrators.NewRK4(), 10)
		Expect(err).NotTo(HaveOccurred())
		for t := range exact {
			Expect(out[t]).To(BeNumerically("~", exact[t], 1e-6))
		}
	})

	It("should be less accurate with Euler than with RK4", func() {
		euler, err := Integrate(years, 1776, emis, k, integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())
		rk4, err := Integrate(years, 1776, emis, k, integrators.NewRK4(), 1)
		Expect(err).NotTo(HaveOccurred())

		last := len(exact) - 1
		Expect(math.Abs(euler[last] - exact[last])).To(BeNumerically(">", math.Abs(rk4[last]-exact[last])))
	})

	It("should treat a non-positive substep count as one", func() {
		a, err := Integrate(years, 1776, emis, k, integrators.NewEuler(), 0)
		Expect(err).NotTo(HaveOccurred())
		b, err := Integrate(years, 1776, emis, k, integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("should apply the same validation as Run", func() {
		_, err := Integrate(years, 1776, emis, dynamo.Scalar(0), integrators.NewRK4(), 4)
		Expect(err).To(MatchError(dynamo.ErrZeroLossRate))

		_, err = Integrate(years, 1776, dynamo.TimeVarying(1, 2), k, integrators.NewRK4(), 4)
		Expect(err).To(MatchError(dynamo.ErrShortForcing))
	})

	It("should report an explicit scheme that diverges", func() {
		long := dynamo.YearRange(1500, 2100)
		_, err := Integrate(long, 1776, dynamo.Scalar(0), dynamo.Scalar(5), integrators.NewEuler(), 1)
		Expect(err).To(MatchError(dynamo.ErrInvalidState))

		var de *dynamo.DomainError
		Expect(errors.As(err, &de)).To(BeTrue())
		Expect(de.Step).To(BeNumerically(">", 400))
	})
})

var _ = Describe("StepSystem", func() {
	It("should expose the box ODE as a linear system", func() {
		sys := StepSystem{Emissions: 10, LossRate: 0.5}
		Expect(sys.StateDim()).To(Equal(1))
		Expect(sys.Derive(dynamo.State{4}, 0)).To(Equal(dynamo.State{8}))

		rate, source := sys.Coefficients(3)
		Expect(rate).To(Equal(0.5))
		Expect(source).To(Equal(10.0))
	})

	It("should agree with Step under the exact integrator", func() {
		sys := StepSystem{Emissions: 550, LossRate: 0.11}
		x := integrators.NewExact().Step(sys, dynamo.State{4900}, 0, 1)
		Expect(x[0]).To(BeNumerically("~", Step(4900, 550, 0.11), 1e-9))
	})
})
