package web

import (
	"bytes"
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/fs"
	"dtr-image/internal/infra/log"
	"dtr-image/internal/render"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type download struct {
	Format   string
	Filename string
	MIMEType string
	Href     template.URL
}

type pageData struct {
	Inputs        dtr.Inputs
	Formats       []string
	Layout        string
	PercentChange string
	Warnings      []string
	Preview       template.URL
	Downloads     []download
	Error         string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, http.StatusOK, pageData{Inputs: dtr.DefaultInputs(), Formats: s.layout.Formats})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	in, err := s.readInputs(w, r)
	if err != nil {
		s.writePage(w, http.StatusBadRequest, pageData{Inputs: dtr.DefaultInputs(), Formats: s.layout.Formats, Error: "Could not read the form."})
		return
	}

	res, ok := s.render(w, in)
	if !ok {
		return
	}

	data := pageData{
		Inputs:        in,
		Formats:       s.layout.Formats,
		Layout:        res.Layout,
		PercentChange: res.PercentChange,
		Warnings:      res.Warnings,
	}
	for i, a := range res.Artifacts {
		href := dataURI(a)
		if i == 0 {
			data.Preview = href
		}
		data.Downloads = append(data.Downloads, download{
			Format:   a.Format,
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Href:     href,
		})
	}

	s.writePage(w, http.StatusOK, data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	raw := httprouter.ParamsFromContext(r.Context()).ByName("format")
	format, ok := dtr.NormalizeFormat(raw)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown format %q", raw), http.StatusNotFound)
		return
	}
	if !s.exports(format) {
		http.Error(w, fmt.Sprintf("format %q is not enabled for layout %q", format, s.layout.Name), http.StatusNotFound)
		return
	}

	in, err := s.readInputs(w, r)
	if err != nil {
		http.Error(w, "could not read the form", http.StatusBadRequest)
		return
	}

	res, ok := s.render(w, in)
	if !ok {
		return
	}

	a, _ := res.Artifact(format)
	w.Header().Set("Content-Type", a.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	for _, warning := range res.Warnings {
		w.Header().Add("X-DTR-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

// readInputs reads the four form fields. A field missing from the submission
// keeps its form default.
func (s *Server) readInputs(w http.ResponseWriter, r *http.Request) (dtr.Inputs, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return dtr.Inputs{}, err
	}

	in := dtr.DefaultInputs()
	form := r.PostForm
	if form.Has(dtr.KeyEntryPrice) {
		in.EntryPrice = form.Get(dtr.KeyEntryPrice)
	}
	if form.Has(dtr.KeyMarkPrice) {
		in.MarkPrice = form.Get(dtr.KeyMarkPrice)
	}
	if form.Has(dtr.KeyATH) {
		in.ATH = form.Get(dtr.KeyATH)
	}
	if form.Has(dtr.KeyTokenSymbol) {
		in.TokenSymbol = form.Get(dtr.KeyTokenSymbol)
	}
	return in, nil
}

// render runs one submission and, when enabled, writes the artifacts to the
// output directory. It writes the error response itself and reports false on
// failure.
func (s *Server) render(w http.ResponseWriter, in dtr.Inputs) (*render.Result, bool) {
	res, err := s.renderer.Render(s.layout, in)
	if err != nil {
		log.LogError("Failed to render image", zap.String("layout", s.layout.Name), zap.Error(err))
		http.Error(w, "failed to render image", http.StatusInternalServerError)
		return nil, false
	}

	if s.saveOutputs {
		id := uuid.NewString()
		paths, err := fs.SaveArtifacts(s.outputDir, id, res.Artifacts)
		if err != nil {
			log.LogError("Failed to save rendered image", zap.String("id", id), zap.Error(err))
		} else {
			log.LogInfo("Rendered image saved", zap.String("id", id), zap.Strings("paths", paths))
		}
	}
	return res, true
}

func (s *Server) exports(format string) bool {
	for _, f := range s.layout.Formats {
		if normalized, _ := dtr.NormalizeFormat(f); normalized == format {
			return true
		}
	}
	return false
}

func (s *Server) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		log.LogError("Failed to execute page template", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func dataURI(a render.Artifact) template.URL {
	return template.URL("data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data))
}
