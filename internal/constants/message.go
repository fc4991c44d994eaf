package constants

// Pagination bounds for the file message log. Limits outside the range are
// clamped by the chat service; the default matches one client page.
const (
	MessagePageDefaultLimit = 10
	MessagePageMaxLimit     = 100
)

// ChatHistoryWindow is how many prior messages (newest-first, then reversed
// chronologically) are replayed to the answer generator on each question.
const ChatHistoryWindow = 6

// RetrievalTopK is how many document passages are pulled from the vector
// index per question.
const RetrievalTopK = 4
