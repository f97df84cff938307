package core

import "strings"

const intentPromptTemplate = `You are the routing step of a pharmacy price-comparison assistant.
Decide whether answering the user's latest message requires looking up
product information (ingredients, prices, directions, availability) from the
product catalog, or whether it can be answered from the conversation alone.

Conversation so far:
{history}

User message:
{query}

Reply with a short justification, then your verdict on its own line in
exactly this format: **Decision**: *Yes* or **Decision**: *No*`

const answerPromptTemplate = `You are ADS, a helpful shopping assistant for an Australian pharmacy
price-comparison site. Answer the user's question using the conversation and
the product context below. Quote prices per retailer when they are relevant.
If the context does not cover the question, say so rather than inventing
product details. Keep answers concise.

Conversation so far:
{history}

Product context:
{context}

User question:
{query}`

func buildIntentPrompt(historyText, query string) string {
	r := strings.NewReplacer("{history}", historyText, "{query}", query)
	return r.Replace(intentPromptTemplate)
}

func buildAnswerPrompt(historyText, contextBlock, query string) string {
	if contextBlock == "" {
		contextBlock = "(no product context retrieved)"
	}
	r := strings.NewReplacer("{history}", historyText, "{context}", contextBlock, "{query}", query)
	return r.Replace(answerPromptTemplate)
}
