package web

import "html/template"

// 极简静态页，不依赖任何前端构建，推到 GitHub Pages 即可访问

const baseCSS = `
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; color: #1f2328; }
.container { max-width: 960px; margin: 0 auto; padding: 0 16px; }
.hero { background: #0d47a1; color: #fff; padding: 48px 0; text-align: center; }
.hero .badge { display: inline-block; margin: 4px; padding: 2px 10px; border-radius: 12px; background: rgba(255,255,255,.2); }
h2 { border-bottom: 1px solid #d0d7de; padding-bottom: 8px; margin-top: 40px; }
.repo { padding: 12px 0; border-bottom: 1px solid #eaeef2; }
.repo a { color: #0d47a1; text-decoration: none; font-weight: 600; }
.repo .meta { color: #57606a; font-size: 14px; }
.tag { display: inline-block; padding: 1px 8px; border-radius: 10px; background: #ddf4ff; color: #0969da; font-size: 12px; margin-left: 6px; }
.delta-up { color: #1a7f37; }
.cats a { display: inline-block; margin: 4px 8px 4px 0; padding: 6px 14px; border: 1px solid #d0d7de; border-radius: 6px; color: #1f2328; text-decoration: none; }
footer { color: #57606a; text-align: center; padding: 32px 0; font-size: 13px; }
`

var tmplFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var indexTmpl = template.Must(template.New("index").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>` + baseCSS + `</style>
</head>
<body>
<header class="hero">
  <h1>GitHub Topics Trending</h1>
  <div><span class="badge">{{.Date}}</span><span class="badge">#{{.Topic}}</span></div>
</header>
<div class="container">
  <h2>🏆 Top 20 精选</h2>
  {{range $i, $repo := .Trends.Top20}}
  <div class="repo">
    <span>{{inc $i}}.</span>
    <a href="{{$repo.URL}}">{{$repo.RepoName}}</a>
    {{if $repo.CategoryZh}}<span class="tag">{{$repo.CategoryZh}}</span>{{end}}
    <div class="meta">⭐ {{$repo.Stars}}{{if gt $repo.StarsDelta 0}} <span class="delta-up">(+{{$repo.StarsDelta}})</span>{{end}} · {{$repo.Summary}}</div>
  </div>
  {{else}}
  <p>今日暂无数据。</p>
  {{end}}

  <h2>📂 按分类浏览</h2>
  <div class="cats">
    {{range .Categories}}<a href="category/{{.Key}}.html">{{.Name}}</a>{{end}}
  </div>

  <h2>📈 今日趋势</h2>
  <p><a href="trending/{{.Date}}.html">查看 {{.Date}} 的完整趋势报告 →</a></p>
</div>
<footer>Generated daily · topic #{{.Topic}}</footer>
</body>
</html>
`))

var trendingTmpl = template.Must(template.New("trending").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>` + baseCSS + `</style>
</head>
<body>
<header class="hero">
  <h1>趋势报告</h1>
  <div><span class="badge">{{.Date}}</span><span class="badge">#{{.Topic}}</span></div>
</header>
<div class="container">
  <h2>🚀 今日飙升</h2>
  {{range .Trends.RisingTop5}}
  <div class="repo"><a href="{{.URL}}">{{.RepoName}}</a>
    <div class="meta">⭐ {{.Stars}} <span class="delta-up">(+{{.StarsDelta}})</span></div></div>
  {{else}}<p>无</p>{{end}}

  <h2>✨ 新晋项目</h2>
  {{range .Trends.NewEntries}}
  <div class="repo"><a href="{{.URL}}">{{.RepoName}}</a>
    <div class="meta">⭐ {{.Stars}} · {{.Summary}}</div></div>
  {{else}}<p>无</p>{{end}}

  <h2>⚡ 星标暴涨</h2>
  {{range .Trends.Surging}}
  <div class="repo"><a href="{{.URL}}">{{.RepoName}}</a>
    <div class="meta">⭐ {{.Stars}} <span class="delta-up">(+{{.StarsDelta}})</span></div></div>
  {{else}}<p>无</p>{{end}}

  <h2>🔥 持续活跃</h2>
  {{range .Trends.Active}}
  <div class="repo"><a href="{{.URL}}">{{.RepoName}}</a>
    <div class="meta">⭐ {{.Stars}} · {{.Summary}}</div></div>
  {{else}}<p>无</p>{{end}}

  <h2>📉 跌出榜单</h2>
  {{range .Trends.DroppedEntries}}
  <div class="repo">{{.RepoName}}
    <div class="meta">上次排名 #{{.PrevRank}} · ⭐ {{.Stars}}</div></div>
  {{else}}<p>无</p>{{end}}
</div>
<footer><a href="../index.html">← 返回首页</a></footer>
</body>
</html>
`))

var categoryTmpl = template.Must(template.New("category").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>` + baseCSS + `</style>
</head>
<body>
<header class="hero">
  <h1>{{.Category.Name}}</h1>
  <div><span class="badge">#{{.Topic}}</span></div>
</header>
<div class="container">
  {{range .Repos}}
  <div class="repo">
    <a href="{{.URL}}">{{.RepoName}}</a>
    {{if .Language}}<span class="tag">{{.Language}}</span>{{end}}
    <div class="meta">{{.Summary}}</div>
  </div>
  {{else}}
  <p>该分类暂无项目。</p>
  {{end}}
</div>
<footer><a href="../index.html">← 返回首页</a></footer>
</body>
</html>
`))
