package preview

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"chatwidget/internal/domain/entity"
)

const (
	youtubeEmbedBase = "https://www.youtube.com/embed/"
	vimeoPlayerBase  = "https://player.vimeo.com/video/"
	docsViewerBase   = "https://docs.google.com/viewer"
	officeViewerBase = "https://view.officeapps.live.com/op/embed.aspx"
	dropboxContent   = "dl.dropboxusercontent.com"
)

var (
	youtubeIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	vimeoIDPattern     = regexp.MustCompile(`^[0-9]+$`)
	driveFilePattern   = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)
	driveShortPattern  = regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`)
	driveIDValue       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	imageExtensions    = []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico"}
	videoExtensions    = []string{"mp4", "webm", "ogg", "mov", "avi"}
	officeExtensions   = []string{"doc", "docx", "xls", "xlsx", "ppt", "pptx"}
	dropboxStripParams = []string{"dl", "raw", "st", "e"}
)

// target is the parsed form of the input every rule inspects.
// u is nil when the input is not a parseable absolute URL.
type target struct {
	raw  string
	u    *url.URL
	host string
	ext  string
}

func newTarget(raw string) target {
	t := target{raw: raw}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err == nil && u.Host != "" {
		t.u = u
		t.host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		t.ext = extension(u.Path)
		return t
	}
	// Unparseable input: strip query and fragment by hand.
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	t.ext = extension(p)
	return t
}

func extension(p string) string {
	ext := path.Ext(strings.ToLower(p))
	return strings.TrimPrefix(ext, ".")
}

func (t target) hostIs(domains ...string) bool {
	for _, d := range domains {
		if t.host == d || strings.HasSuffix(t.host, "."+d) {
			return true
		}
	}
	return false
}

func (t target) extIn(exts []string) bool {
	for _, e := range exts {
		if t.ext == e {
			return true
		}
	}
	return false
}

// rule is one entry of the classification table.
type rule struct {
	name  string
	match func(t target) (entity.Classification, bool)
}

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{name: "youtube", match: matchYouTube},
	{name: "vimeo", match: matchVimeo},
	{name: "googleDrive", match: matchGoogleDrive},
	{name: "dropbox", match: matchDropbox},
	{name: "pdf", match: matchPDF},
	{name: "image", match: matchExtension(imageExtensions, entity.KindImage)},
	{name: "video", match: matchExtension(videoExtensions, entity.KindVideo)},
	{name: "office", match: matchOffice},
}

// Classify maps a URL to its content kind and the URL to embed.
// It never fails: anything that no rule recognises is a web page embedded as-is.
func Classify(rawURL string) entity.Classification {
	t := newTarget(rawURL)
	for _, r := range rules {
		if c, ok := r.match(t); ok {
			c.OriginalURL = rawURL
			return c
		}
	}
	return entity.Classification{Kind: entity.KindWeb, EmbedURL: rawURL, OriginalURL: rawURL}
}

// RuleNames lists the rule table in evaluation order.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}

func matchYouTube(t target) (entity.Classification, bool) {
	if t.u == nil {
		return entity.Classification{}, false
	}
	var id string
	switch {
	case t.hostIs("youtu.be"):
		id = firstSegment(t.u.Path)
	case t.hostIs("youtube.com"):
		switch {
		case strings.TrimSuffix(t.u.Path, "/") == "/watch":
			id = t.u.Query().Get("v")
		case strings.HasPrefix(t.u.Path, "/shorts/"):
			id = firstSegment(strings.TrimPrefix(t.u.Path, "/shorts/"))
		case strings.HasPrefix(t.u.Path, "/embed/"):
			id = firstSegment(strings.TrimPrefix(t.u.Path, "/embed/"))
		}
	default:
		return entity.Classification{}, false
	}
	if !youtubeIDPattern.MatchString(id) {
		return entity.Classification{}, false
	}
	return entity.Classification{Kind: entity.KindYouTube, EmbedURL: youtubeEmbedBase + id}, true
}

func matchVimeo(t target) (entity.Classification, bool) {
	if t.u == nil || !t.hostIs("vimeo.com") || t.host == "player.vimeo.com" {
		return entity.Classification{}, false
	}
	id := firstSegment(t.u.Path)
	if !vimeoIDPattern.MatchString(id) {
		return entity.Classification{}, false
	}
	return entity.Classification{Kind: entity.KindVimeo, EmbedURL: vimeoPlayerBase + id}, true
}

func matchGoogleDrive(t target) (entity.Classification, bool) {
	if t.u == nil || t.host != "drive.google.com" {
		return entity.Classification{}, false
	}
	id := driveFileID(t.u)
	if id == "" {
		return entity.Classification{}, false
	}
	return entity.Classification{
		Kind:     entity.KindGoogleDrive,
		EmbedURL: "https://drive.google.com/file/d/" + id + "/preview",
	}, true
}

func driveFileID(u *url.URL) string {
	if m := driveFilePattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if id := u.Query().Get("id"); driveIDValue.MatchString(id) {
		return id
	}
	if m := driveShortPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

func matchDropbox(t target) (entity.Classification, bool) {
	if t.u == nil || !t.hostIs("dropbox.com") {
		return entity.Classification{}, false
	}
	content := dropboxContentURL(t.u)
	switch {
	case t.ext == "pdf":
		return entity.Classification{Kind: entity.KindPDF, EmbedURL: docsViewerURL(content)}, true
	case t.extIn(imageExtensions):
		return entity.Classification{Kind: entity.KindImage, EmbedURL: content}, true
	case t.extIn(videoExtensions):
		return entity.Classification{Kind: entity.KindVideo, EmbedURL: content}, true
	}
	return entity.Classification{Kind: entity.KindDropbox, EmbedURL: content}, true
}

// dropboxContentURL rewrites a sharing link to the raw content host.
func dropboxContentURL(u *url.URL) string {
	out := *u
	out.Scheme = "https"
	out.Host = dropboxContent
	q := out.Query()
	for _, p := range dropboxStripParams {
		q.Del(p)
	}
	q.Set("raw", "1")
	out.RawQuery = q.Encode()
	out.Fragment = ""
	return out.String()
}

func matchPDF(t target) (entity.Classification, bool) {
	if t.ext != "pdf" {
		return entity.Classification{}, false
	}
	if t.u != nil && (t.host == "drive.google.com" || isDocsViewer(t.u)) {
		return entity.Classification{Kind: entity.KindPDF, EmbedURL: t.raw}, true
	}
	return entity.Classification{Kind: entity.KindPDF, EmbedURL: docsViewerURL(t.raw)}, true
}

func isDocsViewer(u *url.URL) bool {
	return strings.EqualFold(u.Hostname(), "docs.google.com") && strings.HasPrefix(u.Path, "/viewer")
}

func docsViewerURL(raw string) string {
	return docsViewerBase + "?url=" + url.QueryEscape(raw) + "&embedded=true"
}

func matchExtension(exts []string, kind entity.ContentKind) func(t target) (entity.Classification, bool) {
	return func(t target) (entity.Classification, bool) {
		if !t.extIn(exts) {
			return entity.Classification{}, false
		}
		return entity.Classification{Kind: kind, EmbedURL: t.raw}, true
	}
}

func matchOffice(t target) (entity.Classification, bool) {
	if !t.extIn(officeExtensions) {
		return entity.Classification{}, false
	}
	return entity.Classification{
		Kind:     entity.KindOffice,
		EmbedURL: officeViewerBase + "?src=" + url.QueryEscape(t.raw),
	}, true
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		p = p[:i]
	}
	return p
}
