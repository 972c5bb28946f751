package detect

// RecordCount estimates how many records a payload holds, for metadata
// display. Claude counts chat messages; ChatGPT counts raw mapping nodes,
// which includes structural and system nodes the flattener later drops.
// The two semantics disagree on purpose: they mirror what each producer's
// export actually enumerates. For every other kind the top-level array
// length is the best available answer, and scalars have none.
func RecordCount(v any, kind Kind) (int, bool) {
	switch kind {
	case KindClaude:
		return claudeCount(v)
	case KindChatGPT:
		return chatGPTCount(v)
	}
	if arr, ok := v.([]any); ok {
		return len(arr), true
	}
	return 0, false
}

func claudeCount(v any) (int, bool) {
	if obj, ok := v.(map[string]any); ok {
		msgs, ok := obj["chat_messages"].([]any)
		if !ok {
			return 0, false
		}
		return len(msgs), true
	}
	if arr, ok := v.([]any); ok {
		total := 0
		for _, el := range arr {
			n, ok := claudeCount(el)
			if !ok {
				return 0, false
			}
			total += n
		}
		return total, true
	}
	return 0, false
}

func chatGPTCount(v any) (int, bool) {
	if obj, ok := v.(map[string]any); ok {
		mapping, ok := obj["mapping"].(map[string]any)
		if !ok {
			return 0, false
		}
		return len(mapping), true
	}
	if arr, ok := v.([]any); ok {
		total := 0
		for _, el := range arr {
			n, ok := chatGPTCount(el)
			if !ok {
				return 0, false
			}
			total += n
		}
		return total, true
	}
	return 0, false
}
