package constants

const (
	OpenAI = "openai"
	Gemini = "gemini"
)

const (
	OpenAIModel               = "gpt-4o"
	OpenAITemperature         = 1
	OpenAIMaxCompletionTokens = 4096

	GeminiModel               = "gemini-1.5-pro"
	GeminiTemperature         = 1
	GeminiMaxCompletionTokens = 4096

	OpenAIEmbeddingModel = "text-embedding-3-small"
)

// System prompt for the document question-answering pipeline. The retrieved
// passages and the recent conversation are interpolated by the llm package.
const AnswerSystemPrompt = `You are AskPDF, an AI assistant that answers questions about a PDF document the user has uploaded. Use the provided document context and the previous conversation (if relevant) to answer the user's question in markdown format.

Rules:
1. Answer ONLY from the provided context and conversation. Never invent facts about the document.
2. If the answer is not in the context, say "I'm not sure, the document doesn't seem to cover that" - don't try to make up an answer.
3. Keep answers concise and quote the document where it helps.`
