package entity

// ContentKind identifies how a linked resource is presented in the preview.
type ContentKind string

const (
	KindWeb         ContentKind = "web"
	KindPDF         ContentKind = "pdf"
	KindImage       ContentKind = "image"
	KindVideo       ContentKind = "video"
	KindYouTube     ContentKind = "youtube"
	KindVimeo       ContentKind = "vimeo"
	KindGoogleDrive ContentKind = "googleDrive"
	KindOffice      ContentKind = "office"
	KindDropbox     ContentKind = "dropbox"
)

// IsWeb reports whether the kind is a generic web page that needs probing
// before it can be embedded.
func (k ContentKind) IsWeb() bool {
	return k == KindWeb
}

// SandboxPermissions is the token list applied to every preview frame.
// Top-level navigation is deliberately absent.
const SandboxPermissions = "allow-scripts allow-same-origin allow-popups allow-forms allow-presentation"

// PreviewRequest is created when a user activates a link in a chat message.
type PreviewRequest struct {
	URL string `json:"url"`
}

// Classification is the result of classifying a preview URL.
// It is derived deterministically from the URL and never mutated.
type Classification struct {
	Kind        ContentKind `json:"kind"`
	EmbedURL    string      `json:"embedUrl"`
	OriginalURL string      `json:"originalUrl"`
}

// ProbeOutcome reports whether an embed URL can be displayed inside a frame.
type ProbeOutcome struct {
	Succeeded bool `json:"succeeded"`
}

// PageMetadata holds the presentation attributes of a page shown on a
// metadata card.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"` // empty when the page declares no image
	FaviconURL  string `json:"faviconUrl"`

	// FaviconFallbackURL replaces FaviconURL when the declared icon fails to
	// load. Empty when FaviconURL already is the favicon service.
	FaviconFallbackURL string `json:"faviconFallbackUrl,omitempty"`

	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// HasImage reports whether the page declared a preview image.
func (m PageMetadata) HasImage() bool {
	return m.ImageURL != ""
}

// ViewMode is the presentation mode of an open preview.
type ViewMode string

const (
	ModeClosed              ViewMode = "closed"
	ModeProbing             ViewMode = "probing"
	ModeIframe              ViewMode = "iframe"
	ModeMetadataLoading     ViewMode = "metadataLoading"
	ModeMetadataCard        ViewMode = "metadataCard"
	ModeMetadataUnavailable ViewMode = "metadataUnavailable"
)

// OpenWebsiteAction is the call to action shown on metadata cards.
const OpenWebsiteAction = "Open Website"

// ViewState is the visible state of the preview. EmbedURL is set only in
// iframe mode and Metadata only in metadataCard mode.
type ViewState struct {
	Mode     ViewMode      `json:"mode"`
	EmbedURL string        `json:"embedUrl,omitempty"`
	Metadata *PageMetadata `json:"metadata,omitempty"`
	Action   string        `json:"action,omitempty"`
}

// ClosedView is the state of a renderer with no open preview.
func ClosedView() ViewState {
	return ViewState{Mode: ModeClosed}
}

// IframeView returns the view that embeds the given URL.
func IframeView(embedURL string) ViewState {
	return ViewState{Mode: ModeIframe, EmbedURL: embedURL}
}

// CardView returns the metadata card view for a resolved record.
func CardView(md PageMetadata) ViewState {
	return ViewState{Mode: ModeMetadataCard, Metadata: &md, Action: OpenWebsiteAction}
}

// PreviewResolution is the one-shot server-side answer for a preview URL.
type PreviewResolution struct {
	Classification Classification `json:"classification"`
	View           ViewState      `json:"view"`
	Sandbox        string         `json:"sandbox"`
	Probed         bool           `json:"probed"`
}
