package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/orders"
	"github.com/glowempire/storefront/internal/store"
	"github.com/tealeg/xlsx"
)

func (s *Server) login(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := s.store.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "screen": s.store.Screen().Name()})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.store.SignOut(c.Request.Context()); err != nil {
		// the local session is gone either way
		c.JSON(http.StatusOK, gin.H{"message": "Signed out locally", "warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (s *Server) approveOrder(c *gin.Context) {
	order, err := s.orders.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) rejectOrder(c *gin.Context) {
	order, err := s.orders.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) revenue(c *gin.Context) {
	all := s.store.Orders()
	counts := map[models.OrderStatus]int{}
	for _, o := range all {
		counts[o.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"revenue":  orders.Revenue(all),
		"orders":   len(all),
		"pending":  counts[models.OrderStatusPending],
		"approved": counts[models.OrderStatusApproved],
		"rejected": counts[models.OrderStatusRejected],
	})
}

func (s *Server) addProduct(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBind(&draft); err != nil {
		badRequest(c, err.Error())
		return
	}

	image, err := s.formImage(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := s.store.AddProduct(c.Request.Context(), draft, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// formImage reads the optional "image" file of a multipart draft
func (s *Server) formImage(c *gin.Context) (*store.Image, error) {
	if c.ContentType() != "multipart/form-data" {
		return nil, nil
	}

	fh, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > s.opts.MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", s.opts.MaxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("unreadable image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unreadable image: %w", err)
	}
	return &store.Image{Data: data, Name: fh.Filename}, nil
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted", "product_id": id})
}

var exportHeaders = []string{
	"Reference", "Order ID", "Created", "Customer", "Phone", "Address",
	"Items", "Total", "Plan", "Method", "Paid Upfront", "Balance Due", "Status",
}

func (s *Server) exportOrders(c *gin.Context) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
		return
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range s.store.Orders() {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.Reference())
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(o.Customer.Name)
		row.AddCell().SetValue(o.Customer.Phone)
		row.AddCell().SetValue(o.Customer.Address)
		row.AddCell().SetValue(itemSummary(o.Items))
		row.AddCell().SetValue(o.Total)
		row.AddCell().SetValue(string(o.PaymentPlan))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(o.AmountPaid)
		row.AddCell().SetValue(o.BalanceDue)
		row.AddCell().SetValue(string(o.Status))
	}

	c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")

	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}
}

func itemSummary(items []models.CartItem) string {
	summary := ""
	for i, item := range items {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s x%d", item.Name, item.Quantity)
	}
	return summary
}
