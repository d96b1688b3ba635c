package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type pointRegisteredEmailData struct {
	baseEmailData
	Name     string
	City     string
	UF       string
	Location string
}

func renderPointRegistered(data PointRegisteredEmail) (string, error) {
	location := data.City
	if data.UF != "" {
		location = fmt.Sprintf("%s - %s", data.City, data.UF)
	}
	return renderEmailTemplate("point_registered.html", pointRegisteredEmailData{
		baseEmailData: baseEmailData{
			Title:      "Ponto de coleta cadastrado",
			Heading:    "Cadastro concluído!",
			Subheading: "Obrigado por ajudar o meio ambiente.",
			CTALabel:   "Ver ponto de coleta",
			CTAURL:     data.PointURL,
		},
		Name:     data.Name,
		City:     data.City,
		UF:       data.UF,
		Location: location,
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
