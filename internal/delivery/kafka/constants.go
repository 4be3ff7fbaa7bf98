package kafka

import "time"

const (
	TopicSearchRequest = "army.search.req"
	TopicClaimRequest  = "army.claim.req"
	TopicVerifyRequest = "army.verify.req"
	TopicSearchRetry   = "army.search.retry"
	TopicClaimRetry    = "army.claim.retry"
	TopicVerifyRetry   = "army.verify.retry"
	TopicReplyPrefix   = "army.reply."
	TopicRequestSuffix = ".req"
	TopicRetrySuffix   = ".retry"
	TopicDLQSuffix     = ".dlq"

	// Claim requests can wait on an external payment capture, so they get a
	// longer deadline than lookups.
	RequestTimeout      = 3 * time.Second
	ClaimRequestTimeout = 15 * time.Second

	RetryHeaderNextAt = "x-next-at"
	ErrorHeaderKey    = "x-error"
)
