package render

import "html/template"

// html/template drops HTML comments, so the end markers of fragments are
// appended after execution.
const fragmentTemplates = `
{{define "post"}}<div class="post" id="{{.ID}}" data-search="{{.Search}}">
<div class="post-meta">{{if .Subreddit}}<a href="https://www.reddit.com/r/{{.Subreddit}}/">r/{{.Subreddit}}</a> · {{end}}{{if .Author}}u/{{.Author}} · {{end}}{{if .Created}}<time datetime="{{.Created}}">{{.CreatedDisplay}}</time> · {{end}}{{.Score}} points · {{.NumComments}} comments{{if .Over18}} · <span class="nsfw">NSFW</span>{{end}}</div>
<h2 class="post-title"><a href="{{.PagePath}}">{{.Title}}</a></h2>
{{if .Body}}<div class="post-body">{{.Body}}</div>
{{end}}<div class="post-links">{{if .External}}<a href="{{.URL}}">{{.Domain}}</a>{{end}}{{if .Permalink}}<a href="{{.Permalink}}">reddit</a>{{end}}</div>
{{end}}

{{define "comment"}}<div class="comment" id="{{.ID}}" data-search="{{.Search}}">
<div class="comment-meta">{{if .Subreddit}}<a href="https://www.reddit.com/r/{{.Subreddit}}/">r/{{.Subreddit}}</a> · {{end}}{{if .Author}}u/{{.Author}} · {{end}}{{if .Created}}<time datetime="{{.Created}}">{{.CreatedDisplay}}</time> · {{end}}{{.Score}} points</div>
{{if .LinkTitle}}<h3 class="comment-link"><a href="{{.LinkPermalink}}">{{.LinkTitle}}</a></h3>
{{end}}<div class="comment-body">{{.Body}}</div>
<div class="comment-links">{{if .Permalink}}<a href="{{.Permalink}}">permalink</a>{{end}}</div>
{{end}}

{{define "media"}}<div class="media-preview">{{range .}}{{if .Video}}<video controls src="{{.Ref}}"></video>{{else}}<a href="{{.Ref}}"><img src="{{.Ref}}" loading="lazy" alt=""></a>{{end}}{{end}}</div>
{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<base href="../">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
<main>
{{.Fragment}}
{{if .Threads}}<section class="thread">
{{template "thread" .Threads}}</section>
{{end}}</main>
</body>
</html>
{{end}}

{{define "thread"}}{{range .}}<div class="reply">
<div class="comment-meta">{{if .Comment.Author}}u/{{.Comment.Author}} · {{end}}{{.Comment.Score}} points</div>
<div class="comment-body">{{trusted .Comment.Body}}</div>
{{template "thread" .Replies}}</div>
{{end}}{{end}}
`

var templates = template.Must(template.New("render").Funcs(template.FuncMap{
	"trusted": trusted,
}).Parse(fragmentTemplates))

// trusted marks Reddit-rendered markup as safe. Reddit escapes user text
// in body_html itself.
func trusted(s string) template.HTML {
	return template.HTML(s)
}
