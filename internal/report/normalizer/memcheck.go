package normalizer

import (
	appErr "judgegate/pkg/errors"
)

// Memcheck extracts the error list from valgrind memcheck XML, dropping the
// host-specific obj and dir of every stack frame. A nil list means the run
// was clean. Every failure carries MemoryCheckMalformed.
func Memcheck(data []byte) ([]any, error) {
	root, err := xmlRoot(data, "valgrindoutput", appErr.MemoryCheckMalformed)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.MemoryCheckMalformed)
	}

	errs := asList(root["error"])
	if len(errs) == 0 {
		return nil, nil
	}
	for _, e := range errs {
		el, ok := e.(map[string]any)
		if !ok {
			return nil, appErr.Newf(appErr.MemoryCheckMalformed, "error element has no content")
		}
		if err := stripFrames(object(el)); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

func stripFrames(el object) error {
	stack, ok := el["stack"]
	if !ok {
		return appErr.Newf(appErr.MemoryCheckMalformed, "stack is not found during parsing memory check result")
	}
	for _, s := range asList(stack) {
		st, ok := s.(map[string]any)
		if !ok {
			return appErr.Newf(appErr.MemoryCheckMalformed, "stack element has no frames")
		}
		frames, ok := st["frame"]
		if !ok {
			return appErr.Newf(appErr.MemoryCheckMalformed, "frame is not found during parsing memory check result")
		}
		for _, f := range asList(frames) {
			if frame, ok := f.(map[string]any); ok {
				delete(frame, "obj")
				delete(frame, "dir")
			}
		}
	}
	return nil
}
