package engine

// shallowOverlay copies src's keys onto dst, later calls winning on key
// conflicts. It never touches reserved marker keys (callers add those
// separately once the body is final).
func shallowOverlay(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

// deepMerge recursively overlays src onto dst: nested maps are merged
// key-by-key, any other conflicting leaf is overwritten by src (later
// arrival wins), matching the `merge` join mode's deep-merge semantics.
func deepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
			merged := make(map[string]interface{}, len(srcMap))
			deepMerge(merged, srcMap)
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// shapeOutput computes the mode-specific body of a merge barrier's
// release payload, before reserved marker keys are attached. isPrimary
// only matters for passThrough, where it picks out the one caller that
// carries the merged payload at the top level.
func shapeOutput(mode MergeMode, outputKey string, arrivals []map[string]interface{}, isPrimary bool) map[string]interface{} {
	switch mode {
	case ModeMerge:
		merged := make(map[string]interface{})
		for _, a := range arrivals {
			deepMerge(merged, a)
		}
		return map[string]interface{}{outputKey: merged}

	case ModePassThrough:
		if !isPrimary {
			return map[string]interface{}{}
		}
		merged := make(map[string]interface{})
		for _, a := range arrivals {
			shallowOverlay(merged, a)
		}
		return merged

	case ModeWaitAny:
		if len(arrivals) == 0 {
			return map[string]interface{}{outputKey: nil}
		}
		return map[string]interface{}{outputKey: arrivals[len(arrivals)-1]}

	default: // ModeWaitAll, ModeAppend
		list := make([]interface{}, len(arrivals))
		for i, a := range arrivals {
			list[i] = a
		}
		return map[string]interface{}{outputKey: list}
	}
}
