// Package metadata scrapes a page's title and preview image.
package metadata

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Metadata is the best-effort preview of a page. Empty fields mean unknown.
type Metadata struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

// candidates collects the first value seen for each source tag.
type candidates struct {
	ogTitle      string
	twitterTitle string
	docTitle     string
	ogImage      string
	twitterImage string
}

// Parse extracts Metadata from an HTML document. Title resolution order is
// og:title, twitter:title, <title>; image order is og:image, twitter:image.
// Relative image URLs are resolved against base when it is non-nil.
func Parse(r io.Reader, base *url.URL) Metadata {
	doc, err := html.Parse(r)
	if err != nil {
		return Metadata{}
	}

	var c candidates
	walk(doc, &c)

	md := Metadata{
		Title: firstNonEmpty(c.ogTitle, c.twitterTitle, c.docTitle),
		Image: firstNonEmpty(c.ogImage, c.twitterImage),
	}
	if md.Image != "" && base != nil {
		if ref, err := base.Parse(md.Image); err == nil {
			md.Image = ref.String()
		}
	}
	return md
}

func walk(n *html.Node, c *candidates) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "meta":
			readMeta(n, c)
		case "title":
			if c.docTitle == "" {
				c.docTitle = strings.TrimSpace(textOf(n))
			}
		case "script", "style":
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, c)
	}
}

func readMeta(n *html.Node, c *candidates) {
	var key, content string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	if content == "" {
		return
	}

	var dst *string
	switch key {
	case "og:title":
		dst = &c.ogTitle
	case "twitter:title":
		dst = &c.twitterTitle
	case "og:image", "og:image:url":
		dst = &c.ogImage
	case "twitter:image", "twitter:image:src":
		dst = &c.twitterImage
	default:
		return
	}
	if *dst == "" {
		*dst = content
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
