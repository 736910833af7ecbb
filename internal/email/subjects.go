package email

const (
	subjectContactReceived  = "We received your message"
	subjectWelcome          = "Welcome aboard"
	subjectOrderPaymentFmt  = "Order %s: complete your payment"
	subjectOrderReceivedFmt = "Order %s received"
	subjectSyncFailureAlert = "CRM sync failure needs attention"
)
