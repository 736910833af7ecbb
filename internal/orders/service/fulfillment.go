package service

import (
	"context"

	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/orders/repository"
	syncengine "consultancy_site_backend/internal/sync"
)

// fulfill decides the order's terminal fulfillment mode. It runs once per
// order, right after the order row is committed. Every CRM failure along the
// way is absorbed into the deferred_invoice outcome; nothing here may surface
// as an order-creation error.
func (s *Service) fulfill(ctx context.Context, order repository.Order) repository.FulfillmentResult {
	deferred := repository.FulfillmentResult{Mode: repository.ModeDeferredInvoice}

	rec, err := s.engine.SyncOne(ctx, s.target(order))
	if err != nil || rec.Status != syncengine.StatusSynced || rec.ExternalID == nil {
		if err != nil {
			s.log.Error("order contact sync failed", "error", err, "orderNumber", order.OrderNumber)
		}
		return deferred
	}
	contactID := *rec.ExternalID

	if !s.client.SupportsInvoicing() {
		return deferred
	}

	invoice, err := s.client.CreateInvoice(ctx, contactID, invoiceItems(order.Items))
	if err != nil {
		s.log.Error("order invoice creation failed", "error", err, "orderNumber", order.OrderNumber)
		return deferred
	}
	if invoice.PaymentURL == "" {
		deferred.CRMInvoiceID = &invoice.ID
		return deferred
	}

	// payment_url is exposed only for paid_redirect; sandbox orders keep the
	// invoice reference but never leak the demo payment link.
	if !s.client.IsProduction() || crm.IsSandboxID(invoice.ID) || crm.IsSandboxID(contactID) {
		return repository.FulfillmentResult{
			Mode:         repository.ModeSandboxDemo,
			CRMInvoiceID: &invoice.ID,
		}
	}

	return repository.FulfillmentResult{
		Mode:         repository.ModePaidRedirect,
		PaymentURL:   &invoice.PaymentURL,
		CRMInvoiceID: &invoice.ID,
	}
}

func invoiceItems(items []repository.OrderItem) []crm.LineItem {
	lineItems := make([]crm.LineItem, len(items))
	for i, item := range items {
		lineItems[i] = crm.LineItem{
			Title:          item.Title,
			PillarName:     item.PillarName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}
	}
	return lineItems
}
