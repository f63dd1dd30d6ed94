package pipeline

import "context"

// Summarizer produces a short natural-language topic label for a run of
// messages. Implementations are best-effort; callers recover from failure with
// a placeholder instead of propagating.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []Message) (string, error)
}

// Topic placeholders used when summarization is skipped or fails.
const (
	ShortExchangeTopic = "Short exchange"
	UnknownTopic       = "Unknown topic"
)

// DefaultSummaryThreshold is the message count a chunk must exceed before the
// summarization service is invoked for its topic. At or below the threshold the
// chunk gets ShortExchangeTopic without a service call; this is cost control,
// not a quality judgment.
const DefaultSummaryThreshold = 15

// AssembleOptions configures AssembleChunks.
type AssembleOptions struct {
	Authors          AuthorLookup
	Summarizer       Summarizer
	SummaryThreshold int

	// AssignTopics enables the topic policy. Heuristic splitting sets it;
	// service-segmented chunks keep whatever keywords the service returned,
	// even an empty list, and never get a topic.
	AssignTopics bool
}

// AssembleChunks attaches derived annotations to segmenter output: resolved
// author names on every message, the distinct author id/name sets per chunk,
// and, when AssignTopics is set, a topic per chunk. Message membership and
// order are never altered; only fields are added.
func AssembleChunks(ctx context.Context, chunks []Chunk, opts AssembleOptions) []Chunk {
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = DefaultSummaryThreshold
	}

	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		msgs := make([]Message, len(c.Messages))
		copy(msgs, c.Messages)

		var (
			ids   []string
			names []string
			seen  = make(map[string]struct{}, 4)
		)
		for i := range msgs {
			msgs[i].AuthorName = opts.Authors.Resolve(msgs[i].AuthorID)
			if _, ok := seen[msgs[i].AuthorID]; ok {
				continue
			}
			seen[msgs[i].AuthorID] = struct{}{}
			ids = append(ids, msgs[i].AuthorID)
			names = append(names, msgs[i].AuthorName)
		}

		c.Messages = msgs
		c.AuthorIDs = ids
		c.AuthorNames = names

		if opts.AssignTopics {
			c.Topic = assignTopic(ctx, msgs, opts)
		}

		out = append(out, c)
	}
	return out
}

func assignTopic(ctx context.Context, msgs []Message, opts AssembleOptions) string {
	if len(msgs) <= opts.SummaryThreshold {
		return ShortExchangeTopic
	}
	if opts.Summarizer == nil {
		return UnknownTopic
	}
	topic, err := opts.Summarizer.Summarize(ctx, msgs)
	if err != nil || topic == "" {
		return UnknownTopic
	}
	return topic
}
