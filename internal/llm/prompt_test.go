package llm

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

func TestBuildStructuringPromptListsEveryField(t *testing.T) {
	text := "MATRÍCULA Nº 12.345\nLivro 2"
	prompt := BuildStructuringPrompt(text)
	for _, f := range constants.Fields {
		if !strings.Contains(prompt, "- "+f.Key+" ("+f.Description+")") {
			t.Errorf("prompt missing field %s", f.Key)
		}
	}
	if !strings.Contains(prompt, "Input text:\n"+text+"\n") {
		t.Error("prompt does not embed the text verbatim")
	}
	if !strings.Contains(prompt, "Use null for missing fields") {
		t.Error("prompt lacks the null instruction")
	}
}

func TestCompiledSchemaValidatesRecoveredFields(t *testing.T) {
	schema, err := CompileCertidaoSchema()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cases := []struct {
		response string
		valid    bool
	}{
		{`{"Matricula": "1", "Folha": null, "Extra": 3}`, true},
		{`{}`, true},
		{`{"Matricula": 12345}`, false},
		{`{"Livro": ["2"]}`, false},
	}
	for _, tc := range cases {
		rec, err := RecoverJSON(tc.response)
		if err != nil {
			t.Fatalf("recover %s: %v", tc.response, err)
		}
		err = ValidateFields(schema, rec.Fields)
		if tc.valid && err != nil {
			t.Errorf("%s rejected: %v", tc.response, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("%s should not match the schema", tc.response)
		}
	}
}
