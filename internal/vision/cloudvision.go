package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxFaceResults  = 4
	maxLabelResults = 10
)

// CloudVisionEngine calls the Google Cloud Vision images:annotate endpoint.
type CloudVisionEngine struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCloudVisionEngine(baseURL, apiKey string) *CloudVisionEngine {
	return &CloudVisionEngine{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateImageRequest struct {
	Image struct {
		Source struct {
			ImageURI string `json:"imageUri"`
		} `json:"source"`
	} `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type faceAnnotation struct {
	DetectionConfidence    float64    `json:"detectionConfidence"`
	JoyLikelihood          Likelihood `json:"joyLikelihood"`
	SorrowLikelihood       Likelihood `json:"sorrowLikelihood"`
	AngerLikelihood        Likelihood `json:"angerLikelihood"`
	SurpriseLikelihood     Likelihood `json:"surpriseLikelihood"`
	UnderExposedLikelihood Likelihood `json:"underExposedLikelihood"`
	BlurredLikelihood      Likelihood `json:"blurredLikelihood"`
	HeadwearLikelihood     Likelihood `json:"headwearLikelihood"`
}

type annotateResponse struct {
	Responses []struct {
		FaceAnnotations  []faceAnnotation `json:"faceAnnotations"`
		LabelAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
		} `json:"labelAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func (e *CloudVisionEngine) Analyze(ctx context.Context, imageURL string) (Annotations, error) {
	var img annotateImageRequest
	img.Image.Source.ImageURI = imageURL
	img.Features = []annotateFeature{
		{Type: "FACE_DETECTION", MaxResults: maxFaceResults},
		{Type: "LABEL_DETECTION", MaxResults: maxLabelResults},
	}

	payload, err := json.Marshal(annotateRequest{Requests: []annotateImageRequest{img}})
	if err != nil {
		return Annotations{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := e.baseURL + "/v1/images:annotate?" + url.Values{"key": {e.apiKey}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Annotations{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(httpReq)
	if err != nil {
		return Annotations{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Annotations{}, fmt.Errorf("cloud vision http status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out annotateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Annotations{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Responses) == 0 {
		return Annotations{}, nil
	}
	first := out.Responses[0]
	if first.Error != nil {
		return Annotations{}, fmt.Errorf("cloud vision error %d: %s", first.Error.Code, first.Error.Message)
	}

	var a Annotations
	for _, f := range first.FaceAnnotations {
		a.Faces = append(a.Faces, f.toFace())
	}
	for _, l := range first.LabelAnnotations {
		a.Labels = append(a.Labels, Label{Description: l.Description, Score: l.Score})
	}
	return a, nil
}

func (f faceAnnotation) toFace() Face {
	return Face{
		Confidence: f.DetectionConfidence,
		Likelihoods: map[Characteristic]Likelihood{
			Joy:          f.JoyLikelihood,
			Sorrow:       f.SorrowLikelihood,
			Anger:        f.AngerLikelihood,
			Surprise:     f.SurpriseLikelihood,
			UnderExposed: f.UnderExposedLikelihood,
			Blurred:      f.BlurredLikelihood,
			Headwear:     f.HeadwearLikelihood,
		},
	}
}
