package notify

import (
	"fmt"
	"strings"

	"github.com/open-rails/storefront/catalog"
	"github.com/open-rails/storefront/identity"
)

// CustomerSMS builds the short confirmation text for the customer.
func CustomerSMS(order *catalog.Order, customer *identity.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d!\n\n", order.ID)
	fmt.Fprintf(&b, "Date: %s\n", order.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Items: %d\n", len(order.Items))
	fmt.Fprintf(&b, "Total: $%.2f\n", order.Total)
	fmt.Fprintf(&b, "Status: %s\n\n", capitalize(order.Status))
	b.WriteString("Your order is being processed. We'll notify you when it ships.\n")
	fmt.Fprintf(&b, "Track your order at: estore.com/orders/%d\n", order.ID)
	return b.String()
}

// CustomerEmail builds the confirmation email for the customer.
func CustomerEmail(order *catalog.Order, customer *identity.Customer) (subject, body string) {
	subject = fmt.Sprintf("Order Confirmation #%d - Thank you for your purchase!", order.ID)

	name := customer.FirstName
	if name == "" {
		name = "Customer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Thank you for your order! We've received your order and are preparing it for shipment.\n\n")
	b.WriteString("ORDER SUMMARY\n=============\n")
	fmt.Fprintf(&b, "Order Number: #%d\n", order.ID)
	fmt.Fprintf(&b, "Order Date: %s\n", order.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "Total Amount: $%.2f\n\n", order.Total)
	b.WriteString("YOUR ITEMS\n----------\n")
	b.WriteString(customerItemLines(order))
	b.WriteString("\nSHIPPING INFORMATION\n-------------------\n")
	b.WriteString("We'll send you tracking information once your order ships.\n")
	b.WriteString("Expected delivery: 3-5 business days\n\n")
	b.WriteString("Thank you for shopping with us!\n")
	return subject, b.String()
}

// AdminEmail builds the internal new-order notification.
func AdminEmail(order *catalog.Order, customer *identity.Customer) (subject, body string) {
	subject = fmt.Sprintf("New Order #%d - %s %s - $%.2f",
		order.ID, customer.FirstName, customer.LastName, order.Total)

	var b strings.Builder
	fmt.Fprintf(&b, "NEW ORDER #%d | %s\n", order.ID, order.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("======================================\n\n")
	fmt.Fprintf(&b, "Order value: $%.2f\n", order.Total)
	fmt.Fprintf(&b, "Items: %d (total quantity: %d)\n", len(order.Items), totalQuantity(order))
	fmt.Fprintf(&b, "Status: %s\n\n", strings.ToUpper(order.Status))
	b.WriteString("CUSTOMER\n--------\n")
	fmt.Fprintf(&b, "Name: %s %s\n", customer.FirstName, customer.LastName)
	fmt.Fprintf(&b, "Email: %s\n", orDefault(customer.Email, "Not provided"))
	fmt.Fprintf(&b, "Phone: %s\n", orDefault(customer.Phone, "Not provided"))
	fmt.Fprintf(&b, "Address: %s\n\n", orDefault(customer.Address, "Not provided"))
	b.WriteString("NOTIFICATION PREFERENCES\n-----------------------\n")
	fmt.Fprintf(&b, "Email: %s\n", yesNo(order.NotifyEmail))
	fmt.Fprintf(&b, "SMS: %s\n\n", yesNo(order.NotifySMS))
	b.WriteString("ORDERED ITEMS\n------------\n")
	b.WriteString(adminItemLines(order))
	return subject, b.String()
}

func customerItemLines(order *catalog.Order) string {
	if len(order.Items) == 0 {
		return "No items found in this order.\n"
	}
	var b strings.Builder
	for _, item := range order.Items {
		name := fmt.Sprintf("Product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		subtotal := float64(item.Quantity) * item.UnitPrice
		fmt.Fprintf(&b, "- %s\n  Quantity: %d x $%.2f = $%.2f\n", name, item.Quantity, item.UnitPrice, subtotal)
	}
	fmt.Fprintf(&b, "\nOrder Total: $%.2f\n", order.Total)
	return b.String()
}

func adminItemLines(order *catalog.Order) string {
	if len(order.Items) == 0 {
		return "No items found in this order.\n"
	}
	var b strings.Builder
	for _, item := range order.Items {
		name := fmt.Sprintf("Product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		subtotal := float64(item.Quantity) * item.UnitPrice
		fmt.Fprintf(&b, "%-4d | %-30s | %3d | $%8.2f | $%8.2f\n",
			item.ProductID, truncate(name, 30), item.Quantity, item.UnitPrice, subtotal)
	}
	fmt.Fprintf(&b, "TOTAL: $%.2f\n", order.Total)
	return b.String()
}

func totalQuantity(order *catalog.Order) int {
	n := 0
	for _, item := range order.Items {
		n += item.Quantity
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
