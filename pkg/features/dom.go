package features

import (
	"strings"

	"phishjudge/pkg/page"
)

// ratio buckets external/total against two thresholds. Nothing to count is benign.
func ratio(external, total int, low, high float64) Score {
	if total == 0 {
		return Benign
	}
	r := float64(external) / float64(total)
	switch {
	case r < low:
		return Benign
	case r <= high:
		return Unknown
	default:
		return Suspicious
	}
}

func favicon(in *Input) Score {
	icons := in.Page.Matching("link", []string{"rel"}, func(_, v string) bool {
		return strings.Contains(strings.ToLower(v), "icon")
	})
	if len(icons) == 0 {
		return Unknown
	}
	href := strings.TrimSpace(icons[0].AttrOr("href"))
	if href == "" {
		return Unknown
	}
	if in.external(href) {
		return Suspicious
	}
	return Benign
}

func requestURL(in *Input) Score {
	var total, external int
	for _, el := range in.Page.All("img", "audio", "video", "embed", "iframe") {
		src := strings.TrimSpace(el.AttrOr("src"))
		if src == "" {
			continue
		}
		total++
		if in.external(src) {
			external++
		}
	}
	return ratio(external, total, 0.22, 0.61)
}

func urlOfAnchor(in *Input) Score {
	anchors := in.Page.All("a")
	var unsafe int
	for _, a := range anchors {
		href := strings.TrimSpace(a.AttrOr("href"))
		switch {
		case href == "", href == "#", strings.HasPrefix(strings.ToLower(href), "javascript:"):
			unsafe++
		case in.external(href):
			unsafe++
		}
	}
	return ratio(unsafe, len(anchors), 0.31, 0.67)
}

// linksInTags only counts absolute http(s) references in meta, script and link tags.
func linksInTags(in *Input) Score {
	var total, external int
	for _, el := range in.Page.All("meta", "script", "link") {
		for _, attr := range []string{"src", "href", "content"} {
			v := strings.TrimSpace(el.AttrOr(attr))
			if !strings.Contains(strings.ToLower(v), "http") {
				continue
			}
			total++
			if in.external(v) {
				external++
			}
		}
	}
	return ratio(external, total, 0.17, 0.81)
}

// sfh inspects form handlers. A blank handler wins over everything else.
func sfh(in *Input) Score {
	forms := in.Page.All("form")
	verdict := Benign
	for _, f := range forms {
		action, ok := f.Attr("action")
		action = strings.TrimSpace(action)
		if !ok || action == "" || strings.EqualFold(action, "about:blank") {
			return Suspicious
		}
		if in.external(action) {
			verdict = Suspicious
		}
	}
	return verdict
}

func submittingToEmail(in *Input) Score {
	for _, f := range in.Page.All("form") {
		if strings.Contains(strings.ToLower(f.AttrOr("action")), "mailto:") {
			return Suspicious
		}
	}
	if strings.Contains(strings.ToLower(in.Page.Text()), "mailto:") {
		return Suspicious
	}
	return Benign
}

// scripts returns the lower-cased text of every script element.
func scripts(m *page.Model) []string {
	els := m.All("script")
	out := make([]string, 0, len(els))
	for _, s := range els {
		out = append(out, strings.ToLower(s.Text()))
	}
	return out
}

func onMouseover(in *Input) Score {
	for _, txt := range scripts(in.Page) {
		if strings.Contains(txt, "onmouseover") &&
			(strings.Contains(txt, "window.status") || strings.Contains(txt, "location.href")) {
			return Suspicious
		}
	}
	return Benign
}

func rightClick(in *Input) Score {
	for _, txt := range scripts(in.Page) {
		compact := strings.Join(strings.Fields(txt), "")
		if strings.Contains(compact, "event.button==2") || strings.Contains(compact, "contextmenu") {
			return Suspicious
		}
	}
	if body, ok := in.Page.First("body"); ok && (body.HasAttr("contextmenu") || body.HasAttr("oncontextmenu")) {
		return Suspicious
	}
	return Benign
}

func popUpWindow(in *Input) Score {
	for _, txt := range scripts(in.Page) {
		if strings.Contains(txt, "alert(") || strings.Contains(txt, "window.open(") {
			return Suspicious
		}
	}
	return Benign
}

func iframe(in *Input) Score {
	if len(in.Page.All("iframe")) > 0 {
		return Suspicious
	}
	return Benign
}
