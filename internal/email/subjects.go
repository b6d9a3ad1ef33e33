package email

// Subject lines for outbound quote mail.
const (
	subjectQuoteFmt = "Your travel quote %s for %s"
)
