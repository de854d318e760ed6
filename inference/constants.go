package inference

const (
	DefaultInputSize  = 1024
	DefaultInputName  = "input_image"
	DefaultOutputName = "output_image"
)

// ImageNet normalization, matching what the model was trained with.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)
