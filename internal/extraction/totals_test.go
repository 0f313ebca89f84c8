package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("totals", func() {
	var (
		text string
		data ParsedInvoiceData
	)

	JustBeforeEach(func() {
		data = ParseInvoiceOCRText(text)
	})

	When("all three totals have currency glyphs", func() {
		BeforeEach(func() {
			text = "SubTotal ₹1,220 Total GST ₹199.4 Total ₹1,419.4"
		})

		It("should read each one", func() {
			Expect(data.Subtotal).To(Equal(1220.0))
			Expect(data.TotalGST).To(Equal(199.4))
			Expect(data.Total).To(Equal(1419.4))
		})
	})

	When("the subtotal is written as two words", func() {
		BeforeEach(func() {
			text = "Sub Total 1,000 Total Tax 180"
		})

		It("should not mistake the subtotal for the total", func() {
			Expect(data.Subtotal).To(Equal(1000.0))
			Expect(data.TotalGST).To(Equal(180.0))
			Expect(data.Total).To(BeZero())
		})
	})

	When("a grand total is labelled", func() {
		BeforeEach(func() {
			text = "Total 500 Grand Total Rs. 1,180.00"
		})

		It("should prefer the grand total", func() {
			Expect(data.Total).To(Equal(1180.0))
		})
	})

	When("the currency is written as a code", func() {
		BeforeEach(func() {
			text = "Total: INR 2,360.00"
		})

		It("should skip the code", func() {
			Expect(data.Total).To(Equal(2360.0))
		})
	})

	When("no totals are present", func() {
		BeforeEach(func() {
			text = "Charger GST 5% 10 10 105.00"
		})

		It("should default to zero", func() {
			Expect(data.Subtotal).To(BeZero())
			Expect(data.TotalGST).To(BeZero())
			Expect(data.Total).To(BeZero())
		})
	})
})
