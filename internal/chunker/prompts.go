package chunker

// Prompts for narrative analysis. Each is formatted with fmt.Sprintf.

const systemPrompt = `You are an expert at analyzing literature. Provide concise, accurate responses.`

const chapterSummaryPrompt = `Summarize this chapter in 2-3 sentences, focusing on key plot points, character development, and major themes:

Chapter: %s

Summary:`

const semanticClassificationPrompt = `Classify this text as one of: %s.

Text: "%s..."

Classification (respond with just one word):`

const themeExtractionPrompt = `Extract 2-3 main themes from this text. Choose from common literary themes like: magic, adventure, friendship, conflict, romance, mystery, power, sacrifice, redemption, nature, family, betrayal, courage, wisdom, etc.

Text: %s...

Themes (comma-separated):`

const entityExtractionPrompt = `Extract only the 3-5 most important character names and place names from this text.
RESOLVE METAPHORS: Connect descriptions ("the old wizard"), roles ("the captain"), and relationships ("his apprentice") to their proper names using context.
Return as simple comma-separated list without categories or descriptions - use proper names only:

Text: %s

Important entities (proper names only):`
