package llm_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
)

var _ = Describe("Result", func() {
	It("renders success as the generated text", func() {
		r := llm.Success("hello")
		Expect(r.OK()).To(BeTrue())
		Expect(r.String()).To(Equal("hello"))
	})

	It("renders a non-200 status with its code", func() {
		r := llm.HTTPStatus(500)
		Expect(r.OK()).To(BeFalse())
		Expect(r.String()).To(Equal("Error: 500"))
	})

	It("renders request failures with the error description", func() {
		r := llm.RequestFailed(errors.New("connection refused"))
		Expect(r.String()).To(Equal("Request failed: connection refused"))
	})

	It("renders a missing response as the fallback sentence", func() {
		r := llm.MissingResponse()
		Expect(r.Kind).To(Equal(llm.KindMissingResponse))
		Expect(r.String()).To(Equal(llm.FallbackResponse))
	})

	It("keeps a success equal to the fallback distinguishable by kind", func() {
		answered := llm.Success(llm.FallbackResponse)
		missing := llm.MissingResponse()
		Expect(answered.String()).To(Equal(missing.String()))
		Expect(answered.Kind).NotTo(Equal(missing.Kind))
	})
})
