package boxmodel

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBoxModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BoxModel Suite")
}
