package voice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-capture/internal/extraction"
)

// recorder collects every setter call made during a dispatch
type recorder struct {
	calls         []string
	invoiceNumber string
	customer      string
	gstPct        float64
	invoiceDate   string
	notes         string
	items         []extraction.InvoiceLineItem
	description   string
}

func (r *recorder) setters(current []extraction.InvoiceLineItem) FieldSetters {
	return FieldSetters{
		SetInvoiceNumber:    func(v string) { r.calls = append(r.calls, FieldInvoiceNumber); r.invoiceNumber = v },
		SetSelectedCustomer: func(v string) { r.calls = append(r.calls, FieldCustomer); r.customer = v },
		SetGSTPct:           func(v float64) { r.calls = append(r.calls, FieldGSTPct); r.gstPct = v },
		SetInvoiceDate:      func(v string) { r.calls = append(r.calls, FieldInvoiceDate); r.invoiceDate = v },
		SetNotes:            func(v string) { r.calls = append(r.calls, FieldNotes); r.notes = v },
		SetItems:            func(v []extraction.InvoiceLineItem) { r.calls = append(r.calls, "items"); r.items = v },
		SetDescription:      func(v string) { r.calls = append(r.calls, FieldDescription); r.description = v },
		CurrentItems:        current,
	}
}

var _ = Describe("ParseInvoiceVoiceText", func() {
	var (
		transcript string
		current    []extraction.InvoiceLineItem
		rec        *recorder
		updates    []FieldUpdate
	)

	BeforeEach(func() {
		current = nil
		rec = &recorder{}
	})

	JustBeforeEach(func() {
		updates = ParseInvoiceVoiceText(transcript, rec.setters(current))
	})

	When("the transcript is empty", func() {
		BeforeEach(func() {
			transcript = ""
		})

		It("should return an empty list", func() {
			Expect(updates).NotTo(BeNil())
			Expect(updates).To(BeEmpty())
		})

		It("should not call any setter", func() {
			Expect(rec.calls).To(BeEmpty())
		})
	})

	When("the transcript matches nothing", func() {
		BeforeEach(func() {
			transcript = "hello there how are you"
		})

		It("should not change anything", func() {
			Expect(updates).To(BeEmpty())
			Expect(rec.calls).To(BeEmpty())
		})
	})

	Describe("GST", func() {
		When("the rate is spoken as words", func() {
			BeforeEach(func() {
				transcript = "gst eighteen percent"
			})

			It("should set the GST rate", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldGSTPct}}))
				Expect(rec.gstPct).To(Equal(18.0))
			})
		})

		When("the rate follows the number", func() {
			BeforeEach(func() {
				transcript = "eighteen percent gst"
			})

			It("should set the GST rate", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldGSTPct}}))
				Expect(rec.gstPct).To(Equal(18.0))
			})
		})

		When("the rate is not allowed", func() {
			BeforeEach(func() {
				transcript = "gst seven percent"
			})

			It("should ignore it", func() {
				Expect(updates).To(BeEmpty())
				Expect(rec.calls).To(BeEmpty())
			})
		})

		When("the word rate follows gst", func() {
			BeforeEach(func() {
				transcript = "gst rate eighteen"
			})

			It("should not treat it as an item rate", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldGSTPct}}))
			})
		})
	})

	Describe("header fields", func() {
		When("an invoice number is spelled out", func() {
			BeforeEach(func() {
				transcript = "invoice number is S E L dash zero zero one two three"
			})

			It("should assemble the number", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldInvoiceNumber}}))
				Expect(rec.invoiceNumber).To(Equal("SEL-00123"))
			})
		})

		When("a customer and GST are given together", func() {
			BeforeEach(func() {
				transcript = "customer is rahul sharma gst five percent"
			})

			It("should set both in order", func() {
				Expect(updates).To(Equal([]FieldUpdate{
					{ItemIndex: -1, Field: FieldCustomer},
					{ItemIndex: -1, Field: FieldGSTPct},
				}))
				Expect(rec.customer).To(Equal("Rahul Sharma"))
				Expect(rec.gstPct).To(Equal(5.0))
			})
		})

		When("several fields are named in one breath", func() {
			BeforeEach(func() {
				transcript = "invoice number A12 customer priya notes urgent"
			})

			It("should stop each value at the next field", func() {
				Expect(rec.invoiceNumber).To(Equal("A12"))
				Expect(rec.customer).To(Equal("Priya"))
				Expect(rec.notes).To(Equal("urgent"))
				Expect(rec.calls).To(Equal([]string{FieldInvoiceNumber, FieldCustomer, FieldNotes}))
			})
		})

		When("notes are dictated", func() {
			BeforeEach(func() {
				transcript = "notes deliver before friday"
			})

			It("should keep the rest of the transcript", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldNotes}}))
				Expect(rec.notes).To(Equal("deliver before friday"))
			})
		})
	})

	DescribeTable("dates",
		func(transcript, want string) {
			r := &recorder{}
			ups := ParseInvoiceVoiceText(transcript, r.setters(nil))
			if want == "" {
				Expect(ups).To(BeEmpty())
				return
			}
			Expect(ups).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldInvoiceDate}}))
			Expect(r.invoiceDate).To(Equal(want))
		},
		Entry("ISO", "date 2025-07-15", "2025-07-15"),
		Entry("month day year", "date july fifteenth twenty twenty five", "2025-07-15"),
		Entry("month day comma year", "date march 5, 2025", "2025-03-05"),
		Entry("day of month year", "invoice date fifteenth of july twenty twenty five", "2025-07-15"),
		Entry("day month year", "date fifteen july twenty twenty five", "2025-07-15"),
		Entry("impossible date", "date february thirtieth twenty twenty five", ""),
	)

	Describe("removing items", func() {
		BeforeEach(func() {
			current = []extraction.InvoiceLineItem{
				{Description: "Pen", Quantity: 1, Rate: 10, GSTPct: 18, Amount: 11.8},
				{Description: "Book", Quantity: 2, Rate: 50, GSTPct: 5, Amount: 105},
				{Description: "Bag", Quantity: 1, Rate: 500, GSTPct: 12, Amount: 560},
			}
		})

		When("an item is removed by number", func() {
			BeforeEach(func() {
				transcript = "remove item two"
			})

			It("should drop that item", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 1, Field: FieldRemoveItem}}))
				Expect(rec.items).To(HaveLen(2))
				Expect(rec.items[0].Description).To(Equal("Pen"))
				Expect(rec.items[1].Description).To(Equal("Bag"))
			})

			It("should not modify the caller's list", func() {
				Expect(current).To(HaveLen(3))
				Expect(current[1].Description).To(Equal("Book"))
			})
		})

		When("an item is removed by ordinal", func() {
			BeforeEach(func() {
				transcript = "delete the second item"
			})

			It("should drop that item", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 1, Field: FieldRemoveItem}}))
				Expect(rec.items).To(HaveLen(2))
			})
		})

		When("everything is removed", func() {
			BeforeEach(func() {
				transcript = "remove all items"
			})

			It("should clear the list", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldRemoveItem}}))
				Expect(rec.items).NotTo(BeNil())
				Expect(rec.items).To(BeEmpty())
			})
		})

		When("the item does not exist", func() {
			BeforeEach(func() {
				transcript = "remove item five"
			})

			It("should ignore the command", func() {
				Expect(updates).To(BeEmpty())
				Expect(rec.calls).To(BeEmpty())
			})
		})
	})

	Describe("editing items", func() {
		When("a new item is dictated description first", func() {
			BeforeEach(func() {
				transcript = "item one charger quantity ten rate fifty"
			})

			It("should create the item with the default GST", func() {
				Expect(rec.items).To(HaveLen(1))
				Expect(rec.items[0].Description).To(Equal("charger"))
				Expect(rec.items[0].Quantity).To(Equal(10.0))
				Expect(rec.items[0].Rate).To(Equal(50.0))
				Expect(rec.items[0].GSTPct).To(Equal(18.0))
				Expect(rec.items[0].Amount).To(BeNumerically("~", 590, 1e-9))
			})

			It("should report each field", func() {
				Expect(updates).To(Equal([]FieldUpdate{
					{ItemIndex: 0, Field: FieldDescription},
					{ItemIndex: 0, Field: FieldQuantity},
					{ItemIndex: 0, Field: FieldRate},
				}))
			})
		})

		When("the transcript also sets GST", func() {
			BeforeEach(func() {
				transcript = "gst five percent item one charger quantity two rate ten"
			})

			It("should create the item with that rate", func() {
				Expect(rec.items).To(HaveLen(1))
				Expect(rec.items[0].GSTPct).To(Equal(5.0))
				Expect(rec.items[0].Amount).To(BeNumerically("~", 21, 1e-9))
			})
		})

		Context("with existing items", func() {
			BeforeEach(func() {
				current = []extraction.InvoiceLineItem{
					{Description: "Pen", Quantity: 2, Rate: 10, GSTPct: 5, Amount: 21},
				}
			})

			When("only the quantity is spoken", func() {
				BeforeEach(func() {
					transcript = "item one quantity five"
				})

				It("should keep the other fields and recompute the amount", func() {
					Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 0, Field: FieldQuantity}}))
					Expect(rec.items[0].Description).To(Equal("Pen"))
					Expect(rec.items[0].Rate).To(Equal(10.0))
					Expect(rec.items[0].Amount).To(BeNumerically("~", 52.5, 1e-9))
				})
			})

			When("quantity and rate come before the description", func() {
				BeforeEach(func() {
					transcript = "item two quantity three rate forty usb cable"
				})

				It("should append the new item", func() {
					Expect(rec.items).To(HaveLen(2))
					Expect(rec.items[1].Description).To(Equal("usb cable"))
					Expect(rec.items[1].Quantity).To(Equal(3.0))
					Expect(rec.items[1].Rate).To(Equal(40.0))
					Expect(rec.items[1].Amount).To(BeNumerically("~", 141.6, 1e-9))
				})
			})

			When("the rate is spoken as hundreds", func() {
				BeforeEach(func() {
					transcript = "item one rate one fifty"
				})

				It("should read it as one price", func() {
					Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 0, Field: FieldRate}}))
					Expect(rec.items[0].Rate).To(Equal(150.0))
					Expect(rec.items[0].Amount).To(BeNumerically("~", 315, 1e-9))
				})
			})

			When("the rate comes before the quantity", func() {
				BeforeEach(func() {
					transcript = "item one pencil rate twenty quantity three"
				})

				It("should read both numbers", func() {
					Expect(rec.items[0].Description).To(Equal("pencil"))
					Expect(rec.items[0].Rate).To(Equal(20.0))
					Expect(rec.items[0].Quantity).To(Equal(3.0))
				})
			})

			When("the item is addressed by ordinal", func() {
				BeforeEach(func() {
					transcript = "first item quantity four"
				})

				It("should edit that item", func() {
					Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 0, Field: FieldQuantity}}))
					Expect(rec.items[0].Quantity).To(Equal(4.0))
				})
			})

			When("no item is addressed", func() {
				BeforeEach(func() {
					transcript = "quantity three"
				})

				It("should edit the first item", func() {
					Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 0, Field: FieldQuantity}}))
					Expect(rec.items[0].Quantity).To(Equal(3.0))
					Expect(rec.items[0].Amount).To(BeNumerically("~", 31.5, 1e-9))
				})
			})
		})

		Context("with two existing items", func() {
			BeforeEach(func() {
				current = []extraction.InvoiceLineItem{
					{Description: "Pen", Quantity: 1, Rate: 10, GSTPct: 5, Amount: 10.5},
					{Description: "Cable", Quantity: 1, Rate: 100, GSTPct: 18, Amount: 118},
				}
			})

			When("another field interrupts the addressed item", func() {
				BeforeEach(func() {
					transcript = "item two charger gst five percent quantity three"
				})

				It("should edit the addressed item only", func() {
					Expect(updates).To(Equal([]FieldUpdate{
						{ItemIndex: -1, Field: FieldGSTPct},
						{ItemIndex: 1, Field: FieldDescription},
						{ItemIndex: 1, Field: FieldQuantity},
					}))
					Expect(rec.items[0]).To(Equal(current[0]))
					Expect(rec.items[1].Description).To(Equal("charger"))
					Expect(rec.items[1].Quantity).To(Equal(3.0))
					Expect(rec.items[1].Amount).To(BeNumerically("~", 354, 1e-9))
				})
			})

			When("the addressed item gets no usable field", func() {
				BeforeEach(func() {
					transcript = "item two gst five percent"
				})

				It("should not touch the first item", func() {
					Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: -1, Field: FieldGSTPct}}))
					Expect(rec.items).To(BeNil())
				})
			})
		})

		When("only a description is spoken", func() {
			BeforeEach(func() {
				transcript = "description is wireless mouse"
			})

			It("should set the description and the first item", func() {
				Expect(updates).To(Equal([]FieldUpdate{{ItemIndex: 0, Field: FieldDescription}}))
				Expect(rec.description).To(Equal("wireless mouse"))
				Expect(rec.items).To(HaveLen(1))
				Expect(rec.items[0].Description).To(Equal("wireless mouse"))
			})
		})
	})
})

var _ = Describe("Parser", func() {
	It("should be deterministic", func() {
		p := NewParser(extraction.DefaultConfig())
		current := []extraction.InvoiceLineItem{{Description: "Pen", Quantity: 1, Rate: 10, GSTPct: 18}}
		text := "customer is asha item one quantity two gst twelve percent"
		Expect(p.Parse(text, current)).To(Equal(p.Parse(text, current)))
	})

	It("should leave Items nil when the list is unchanged", func() {
		Expect(defaultParser.Parse("gst eighteen percent", nil).Items).To(BeNil())
	})

	It("should honour a custom GST set", func() {
		p := NewParser(extraction.Config{AllowedGST: []float64{0, 7, 19}, DefaultGST: 19})
		prop := p.Parse("gst seven percent", nil)
		Expect(prop.GSTPct).NotTo(BeNil())
		Expect(*prop.GSTPct).To(Equal(7.0))
	})
})

var _ = Describe("Dispatch", func() {
	It("should skip nil setters", func() {
		number := "A1"
		pct := 18.0
		updates := Dispatch(Proposal{
			InvoiceNumber: &number,
			GSTPct:        &pct,
			Updates:       []FieldUpdate{{ItemIndex: -1, Field: FieldInvoiceNumber}, {ItemIndex: -1, Field: FieldGSTPct}},
		}, FieldSetters{})
		Expect(updates).To(HaveLen(2))
	})

	It("should call setters in a fixed order", func() {
		rec := &recorder{}
		number, customer, date, notes, desc := "A1", "Asha", "2025-07-15", "n", "d"
		pct := 5.0
		Dispatch(Proposal{
			Description:   &desc,
			Items:         []extraction.InvoiceLineItem{},
			Notes:         &notes,
			InvoiceDate:   &date,
			GSTPct:        &pct,
			Customer:      &customer,
			InvoiceNumber: &number,
		}, rec.setters(nil))
		Expect(rec.calls).To(Equal([]string{
			FieldInvoiceNumber, FieldCustomer, FieldGSTPct, FieldInvoiceDate, FieldNotes, "items", FieldDescription,
		}))
	})

	It("should return an empty list for an empty proposal", func() {
		Expect(Dispatch(Proposal{}, FieldSetters{})).To(Equal([]FieldUpdate{}))
	})
})
