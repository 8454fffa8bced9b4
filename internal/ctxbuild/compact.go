package ctxbuild

import "fmt"

// Compact implements §4.5's history compaction: when the cumulative size
// of history exceeds budget (approximated as byte length — a token budget
// without pulling in a tokenizer dependency, matching the teacher's
// practice of measuring text in bytes rather than exact provider
// tokens), the oldest observation turns' payloads are replaced by their
// externalized file references. Action turns (model output, tool
// requests) are never touched. The substitution is lossless: the original
// content is first written out via the Externalizer, so it remains
// recoverable by reference.
func Compact(history []HistoryTurn, budget int, externalizer Externalizer) ([]HistoryTurn, error) {
	if budget <= 0 || totalSize(history) <= budget {
		return history, nil
	}

	out := append([]HistoryTurn(nil), history...)
	for i := range out {
		if totalSize(out) <= budget {
			break
		}
		turn := out[i]
		if !turn.IsObservation || turn.ExternalRef != "" {
			continue
		}
		ref, err := externalizer.Externalize(fmt.Sprintf("history-%d", i), turn.Content)
		if err != nil {
			return nil, fmt.Errorf("ctxbuild: compact turn %d: %w", i, err)
		}
		out[i] = HistoryTurn{
			Role:          turn.Role,
			Content:       fmt.Sprintf("[observation externalized, see %s]", ref),
			IsObservation: true,
			ExternalRef:   ref,
		}
	}
	return out, nil
}

func totalSize(history []HistoryTurn) int {
	n := 0
	for _, t := range history {
		n += len(t.Content)
	}
	return n
}
