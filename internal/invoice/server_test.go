package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/invoice-capture/internal/extraction"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		scanner     *mockScanner
		transcriber *mockTranscriber
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		service = NewServiceWithDeps(db, scanner, transcriber, storage, extraction.DefaultConfig(),
			&mockIDGenerator{id: "test-id-123"},
			&mockTimeSource{now: time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)})
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	multipartBody := func(field, filename string, data []byte) (*bytes.Buffer, string) {
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		part, _ := writer.CreateFormFile(field, filename)
		part.Write(data)
		writer.Close()
		return &b, writer.FormDataContentType()
	}

	decode := func(resp *http.Response, v any) {
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, v)).To(Succeed())
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		scanner = newMockScanner()
		transcriber = &mockTranscriber{}
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleHealth", func() {
		It("should report ok without credentials", func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			setupServer()

			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var body map[string]string
			decode(resp, &body)
			Expect(body["status"]).To(Equal("ok"))
		})
	})

	Describe("handleScanInvoice", func() {
		When("upload succeeds", func() {
			It("should return the created draft", func() {
				b, contentType := multipartBody("file", "invoice.jpg", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/scan", contentType, b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var draft Draft
				decode(resp, &draft)
				Expect(draft.ID).To(Equal("test-id-123"))
				Expect(draft.Invoice.InvoiceNumber).To(Equal("SEL-00123"))
				Expect(draft.ContentType).To(Equal("image/jpeg"))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				b, contentType := multipartBody("other", "invoice.jpg", []byte("data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/scan", contentType, b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the body is not multipart", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/scan", "text/plain", strings.NewReader("nope"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the scanner fails", func() {
			BeforeEach(func() {
				scanner.scanErr = errors.New("backend down")
				setupServer()
			})

			It("should return the error as JSON", func() {
				b, contentType := multipartBody("file", "invoice.png", []byte("data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/scan", contentType, b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				decode(resp, &body)
				Expect(body["error"]).To(ContainSubstring("backend down"))
			})
		})
	})

	Describe("handleParseText", func() {
		It("should create a draft from the text", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/invoices/parse", "application/json",
				strings.NewReader(`{"text":"Invoice No: SEL-00123 Total ₹100"}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var draft Draft
			decode(resp, &draft)
			Expect(draft.Invoice.InvoiceNumber).To(Equal("SEL-00123"))
			Expect(draft.Invoice.Total).To(Equal(100.0))
		})

		It("should reject invalid JSON", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/invoices/parse", "application/json", strings.NewReader("{"))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleGetDraft", func() {
		When("draft exists", func() {
			BeforeEach(func() {
				db.drafts["d1"] = &Draft{ID: "d1", Invoice: extraction.ParsedInvoiceData{CustomerName: "Asha"}}
			})

			It("should return the draft", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/d1")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var draft Draft
				decode(resp, &draft)
				Expect(draft.Invoice.CustomerName).To(Equal("Asha"))
			})
		})

		When("draft does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleListDrafts", func() {
		It("should return an empty array when there are no drafts", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
		})

		When("service returns an error", func() {
			BeforeEach(func() {
				db.listErr = errors.New("db error")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("handleGetDraftFile", func() {
		BeforeEach(func() {
			db.drafts["d1"] = &Draft{ID: "d1", Filename: "d1_invoice.pdf", ContentType: "application/pdf"}
			storage.files["d1_invoice.pdf"] = []byte("%PDF-1.4")
		})

		It("should return the file with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices/d1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("%PDF-1.4")))
		})

		When("file does not exist in storage", func() {
			BeforeEach(func() {
				delete(storage.files, "d1_invoice.pdf")
			})

			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/d1/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteDraft", func() {
		It("should return status No Content", func() {
			db.drafts["d1"] = &Draft{ID: "d1"}
			req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/d1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.drafts).NotTo(HaveKey("d1"))
		})

		It("should return status Not Found for unknown drafts", func() {
			req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/missing", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		When("service returns an error", func() {
			BeforeEach(func() {
				db.drafts["d1"] = &Draft{ID: "d1"}
				db.deleteErr = errors.New("db error")
			})

			It("should return status Internal Server Error", func() {
				req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/d1", nil)
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("handleVoice", func() {
		BeforeEach(func() {
			db.drafts["d1"] = &Draft{ID: "d1", GSTPct: 18, Invoice: extraction.ParsedInvoiceData{Items: []extraction.InvoiceLineItem{}}}
		})

		When("a transcript is posted", func() {
			It("should return the applied updates", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/d1/voice", "application/json",
					strings.NewReader(`{"transcript":"gst twelve percent"}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var result VoiceResult
				decode(resp, &result)
				Expect(result.Draft.GSTPct).To(Equal(12.0))
				Expect(result.Updates).To(HaveLen(1))
				Expect(result.Updates[0].Field).To(Equal("gstPct"))
			})
		})

		When("a recording is uploaded", func() {
			BeforeEach(func() {
				transcriber.transcript = "notes deliver on monday"
			})

			It("should transcribe and apply it", func() {
				b, contentType := multipartBody("audio", "memo.webm", []byte("audio data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/d1/voice", contentType, b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var result VoiceResult
				decode(resp, &result)
				Expect(result.Transcript).To(Equal("notes deliver on monday"))
				Expect(result.Draft.Invoice.Notes).To(Equal("deliver on monday"))
			})
		})

		When("transcription fails", func() {
			BeforeEach(func() {
				transcriber.err = errors.New("speech backend down")
			})

			It("should return status Bad Request", func() {
				b, contentType := multipartBody("audio", "memo.webm", []byte("audio data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/d1/voice", contentType, b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the draft does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices/missing/voice", "application/json",
					strings.NewReader(`{"transcript":"gst twelve percent"}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleExport", func() {
		It("should download a workbook", func() {
			db.drafts["d1"] = &Draft{ID: "d1"}
			resp, err := http.Get(ghttpServer.URL() + "/api/export.xlsx")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal(xlsxContentType))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("invoices.xlsx"))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/invoices", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("authenticate", func() {
		When("no auth is configured", func() {
			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(server.authenticate(req)).To(BeTrue())
			})
		})

		When("auth is configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				setupServer()
			})

			It("should accept valid credentials", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")))
				Expect(server.authenticate(req)).To(BeTrue())
			})

			It("should reject invalid credentials", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
				Expect(server.authenticate(req)).To(BeFalse())
			})

			It("should reject requests without credentials", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Invoice Capture"))
			})
		})
	})
})
