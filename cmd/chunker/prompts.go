package main

// segmentSystemPrompt instructs the batch segmentation model. The model's
// answer is treated as untrusted either way; hallucinated or missing message
// ids are dropped during reconciliation.
const segmentSystemPrompt = "You are given a chronological chat log.\n" +
	"Your task is to divide it into coherent conversation chunks, grouped by topic and extract a max of 5 keywords for each group (shorter conversations can have less keywords).\n" +
	"Each message is prefixed with its ID in square brackets like [0123].\n" +
	"IMPORTANT:\n" +
	" - DO NOT repeat messages or write summaries.\n" +
	" - DO NOT use the names of the people talking as keywords, as those are handled separately, names of other people mentioned in the conversation is ok.\n" +
	" - DO NOT skip any messages, make sure every message ID is accounted for in exactly one chunk and in order.\n" +
	"Return only a JSON list. Each list item is a JSON object with two keys:\n" +
	"1. `keywords`: a list of relevant keywords\n" +
	"2. `message_ids`: a list of message IDs in that chunk\n\n" +
	"Example output:\n" +
	"[\n" +
	"  {\"keywords\": [\"car repair\", \"exes\", \"jessica\"], \"message_ids\": [\"0123\", \"0124\"]},\n" +
	"  {\"keywords\": [\"valorant\"], \"message_ids\": [\"2123\"]}\n" +
	"]\n\n"

// topicInstructions drives the per-chunk topic summarizer used on longer
// heuristic chunks.
const topicInstructions = "You are given a transcript of one segment of a group chat.\n" +
	"Produce a single short topic label (at most ten words) describing what the segment is about.\n" +
	"Do not mention the participants' names in the label.\n" +
	"Return JSON matching the provided schema."
