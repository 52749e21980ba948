package constant

const (
	SearchModeKnowledge = "knowledge"
	SearchModeHybrid    = "hybrid"
	SearchModeModelOnly = "model_only"

	AiProviderOllama   = "ollama"
	AiProviderDeepSeek = "deepseek"

	// SystemPrompt frames every conversation. The assistant answers from
	// the user's own data, which is injected as a second system message.
	SystemPrompt = `You are Sphere AI Assistant, a local assistant with access to the user's data. ` +
		`Relevant notes, tasks and document fragments are selected for each request and passed to you. ` +
		`Answer precisely based on that data: quote it, reference specific records, draw conclusions. ` +
		`The user may talk about anything related to their notes, plans and documents; ground your answers in their own data. ` +
		`Keep answers short and to the point. Use Markdown for formatting.`

	// KnowledgeModeRestriction is appended to the context message when the
	// assistant must not fall back on general model knowledge.
	KnowledgeModeRestriction = "IMPORTANT: Answer ONLY from the data in the context above. " +
		"Do not use your general knowledge. If the context does not contain the information, say so."

	UserContextHeader = "User context:"

	NoProvidersMessage       = "Error: no AI providers are available. Check your settings."
	NoProvidersStreamMessage = "Error: no AI providers are available."

	// DocumentAnswerPrompt wraps retrieved fragments and a question for
	// direct document Q&A.
	DocumentAnswerPrompt = "Answer the user's question based on the following document fragments.\n\n" +
		"Fragments:\n%s\n\nQuestion: %s\n\nAnswer (use Markdown):"

	NoDocumentsFoundMessage = "No relevant documents found. Upload documents to get started."
)
