package roialign

import "errors"

// ErrNotCompiled reports that a tensor was routed to the accelerator but the
// running binary was built without the WebGPU engine. Callers can test for it
// with errors.Is and fall back to CPU-resident tensors.
var ErrNotCompiled = errors.New("not compiled with WebGPU support")
