package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

type listInvoicesRequest struct {
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	NumberOfItems pagination.Int `json:"numberOfItems"`
	Offset        pagination.Int `json:"offset"`
}

// bind reads the list body. Pagination is validated before the date range.
func (r listInvoicesRequest) bind() (invoicedomain.DateRange, pagination.Offset, error) {
	if !r.Offset.Set {
		return invoicedomain.DateRange{}, pagination.Offset{}, pagination.ErrInvalidOffset
	}
	if !r.NumberOfItems.Set {
		return invoicedomain.DateRange{}, pagination.Offset{}, pagination.ErrInvalidSize
	}
	page := pagination.Offset{Size: r.NumberOfItems.Value, Offset: r.Offset.Value}
	if err := page.Validate(); err != nil {
		return invoicedomain.DateRange{}, pagination.Offset{}, err
	}

	start, ok := invoicedomain.ParseDate(r.StartDate)
	if !ok {
		return invoicedomain.DateRange{}, pagination.Offset{}, invoicedomain.ErrInvalidDateRange
	}
	end, ok := invoicedomain.ParseDate(r.EndDate)
	if !ok {
		return invoicedomain.DateRange{}, pagination.Offset{}, invoicedomain.ErrInvalidDateRange
	}
	return invoicedomain.DateRange{Start: start, End: end}, page, nil
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req listInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	rng, page, err := req.bind()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), rng, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": resp.List, "result": resp.Result, "total": resp.Total})
}

func (s *Server) ListInvoicesFull(c *gin.Context) {
	var req listInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	rng, page, err := req.bind()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.ListFull(c.Request.Context(), rng, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": resp.List, "result": resp.Result, "total": resp.Total})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.invoiceSvc.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "invoice updated",
		"invoiceId":     res.InvoiceID,
		"updatedFields": res.UpdatedFields,
	})
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	res, err := s.invoiceSvc.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoiceId": res.Invoice.ID,
		"pdfBase64": res.Base64,
		"message":   "invoice pdf generated",
	})
}

func (s *Server) GetOriginalPDF(c *gin.Context) {
	encoded, err := s.invoiceSvc.OriginalPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfBase64": encoded})
}

func (s *Server) GetAttachmentPDF(c *gin.Context) {
	encoded, err := s.invoiceSvc.AttachmentPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfBase64": encoded})
}

func (s *Server) ListBillTo(c *gin.Context)    { s.listDistinct(c, "billto") }
func (s *Server) ListShipTo(c *gin.Context)    { s.listDistinct(c, "shipto") }
func (s *Server) ListIncoterms(c *gin.Context) { s.listDistinct(c, "lncotenn") }

func (s *Server) listDistinct(c *gin.Context, lookup string) {
	values, err := s.invoiceSvc.DistinctValues(c.Request.Context(), lookup)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": values, "result": len(values) > 0})
}

// stringList accepts a JSON array of strings or a single comma separated
// string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		*l = strings.FieldsFunc(joined, func(r rune) bool { return r == ',' || r == ';' })
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// invoiceRefParam accepts either a bare invoice id or {id, number}.
type invoiceRefParam invoicedomain.InvoiceRef

func (p *invoiceRefParam) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty invoice reference")
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = invoiceRefParam{ID: id}
		return nil
	case '{':
		var obj struct {
			ID     json.RawMessage `json:"id"`
			Number json.RawMessage `json:"number"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*p = invoiceRefParam{ID: scalarString(obj.ID), Number: scalarString(obj.Number)}
		return nil
	default:
		*p = invoiceRefParam{ID: scalarString(data)}
		return nil
	}
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type sendEmailRequest struct {
	RecipientEmails stringList        `json:"recipientEmails"`
	Subject         string            `json:"subject"`
	MessageHTML     string            `json:"messageHtml"`
	InvoiceIDs      []invoiceRefParam `json:"invoiceIds"`
}

func (s *Server) SendInvoicesEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	refs := make([]invoicedomain.InvoiceRef, 0, len(req.InvoiceIDs))
	for _, ref := range req.InvoiceIDs {
		refs = append(refs, invoicedomain.InvoiceRef(ref))
	}

	res, err := s.invoiceSvc.SendInvoices(c.Request.Context(), invoicedomain.SendRequest{
		Recipients: req.RecipientEmails,
		Subject:    req.Subject,
		HTMLBody:   req.MessageHTML,
		Invoices:   refs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "invoices sent",
		"messageId":    res.MessageID,
		"invoicesSent": res.InvoicesSent,
		"result":       true,
	})
}
