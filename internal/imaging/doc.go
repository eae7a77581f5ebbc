// Package imaging provides Image, a stateful handle over one raster image.
//
// An Image is loaded from a PNG, JPEG or GIF file with Open, transformed in
// place (Crop, Scale, Rotate, Flip, Flatten, Filter, Opacity, Watermark,
// SetResolution) and exported with Save, Send, Render or DataURI. Pixel work
// is delegated to a raster.Backend; the handle sequences backend primitives,
// validates arguments and keeps its state consistent.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X growing
// rightward and Y downward. Rectangles are half-open: Min is inclusive, Max
// exclusive.
//
// # State
//
// Every transform is replace-on-success: the backend produces a new raster,
// the handle installs it and releases the previous one. When any step fails
// the previous raster stays installed, unchanged. The format recorded at load
// time never changes, so an image is always saved in the format it was read
// in.
//
// Quality is format specific: PNG takes a 0-9 compression level (default 6),
// JPEG 0-100 (default 75) and GIF none. See the format package for the full
// policy table.
//
// # Errors
//
// Every error returned is an *Error whose kind matches one of ErrInvalidInput,
// ErrInvalidOperation, ErrUnsupported, ErrOperationFailed or ErrEncode with
// errors.Is. Operation failures record the backend step that failed; see
// FailedStep.
//
// # Thread Safety
//
// An Image is not safe for concurrent use. Watermark only reads the image it
// is given, which may be used concurrently by readers but must not be
// transformed during the call.
package imaging
