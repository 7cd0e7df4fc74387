package gemini

import "strings"

// Response modalities accepted by generateContent.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

// OpenAPI subset types used by responseSchema.
const (
	TypeObject = "OBJECT"
	TypeString = "STRING"
	TypeArray  = "ARRAY"
)

// Part is one unit of multimodal content: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded bytes with their MIME type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart builds an inline-data part from already base64-encoded bytes.
func InlinePart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

// Content is an ordered list of parts authored by a role (user, model).
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema is the structured-output schema sent as generationConfig.responseSchema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// GenerationConfig controls output format and modalities.
type GenerationConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// GenerateContentRequest is the body of models/{model}:generateContent.
type GenerateContentRequest struct {
	// Model is part of the URL, not the body.
	Model            string            `json:"-"`
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated response.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index"`
}

// UsageMetadata reports token accounting.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// PromptFeedback is set when the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the decoded generateContent response.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// FirstCandidateParts returns the parts of the first candidate, or nil when
// there is no candidate or it has no content.
func (r *GenerateContentResponse) FirstCandidateParts() []Part {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return nil
	}
	return r.Candidates[0].Content.Parts
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	var sb strings.Builder
	for _, p := range r.FirstCandidateParts() {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// GenerateImagesRequest describes an Imagen predict call.
type GenerateImagesRequest struct {
	Model          string
	Prompt         string
	NumberOfImages int
	AspectRatio    string // "1:1", "3:4", "16:9", ...
	OutputMimeType string // image/png, image/jpeg
}

// GeneratedImage is one Imagen output.
type GeneratedImage struct {
	MimeType string
	// Data is the base64-encoded image payload as returned by the API.
	Data string
}

// GenerateImagesResponse holds the images in provider order. Predictions
// dropped by a safety filter are not images; their reasons are kept apart.
type GenerateImagesResponse struct {
	Images          []GeneratedImage
	FilteredReasons []string
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictOutputOptions struct {
	MimeType string `json:"mimeType,omitempty"`
}

type predictParameters struct {
	SampleCount   int                   `json:"sampleCount,omitempty"`
	AspectRatio   string                `json:"aspectRatio,omitempty"`
	OutputOptions *predictOutputOptions `json:"outputOptions,omitempty"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
		MimeType           string `json:"mimeType,omitempty"`
		RAIFilteredReason  string `json:"raiFilteredReason,omitempty"`
	} `json:"predictions"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
