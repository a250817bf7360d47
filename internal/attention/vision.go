package attention

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// minDetectionConfidence filters out marginal detections that would make
// the eye-contact signal flicker.
const minDetectionConfidence = 0.5

// VisionDetector runs face detection through the Google Cloud Vision API.
type VisionDetector struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionDetector dials the Vision API with ambient Google credentials.
func NewVisionDetector(ctx context.Context) (*VisionDetector, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial vision API: %w", err)
	}
	return &VisionDetector{client: client}, nil
}

// Close releases the underlying API client.
func (d *VisionDetector) Close() error {
	return d.client.Close()
}

// FacePresent reports whether the frame contains at least one confidently
// detected face.
func (d *VisionDetector) FacePresent(ctx context.Context, frame []byte) (bool, error) {
	faces, err := d.client.DetectFaces(ctx, &visionpb.Image{Content: frame}, nil, 1)
	if err != nil {
		return false, fmt.Errorf("detect faces: %w", err)
	}
	for _, face := range faces {
		if face.DetectionConfidence >= minDetectionConfidence {
			return true, nil
		}
	}
	return false, nil
}
