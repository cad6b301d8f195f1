package record

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

var wantColumns = []string{
	"Matricula", "Proprietario", "CPF", "Endereco_Imovel", "Municipio", "Estado",
	"Area_Terreno", "Registro_Anterior", "Data_Registro", "Cartorio", "Livro", "Folha", "Observacoes",
}

func TestBuildColumnsAndOrder(t *testing.T) {
	for _, in := range []map[string]any{nil, {}, {"Matricula": "1"}} {
		r := Build(in)
		if !slices.Equal(r.Columns(), wantColumns) {
			t.Fatalf("columns = %v", r.Columns())
		}
		if len(r.Values()) != 13 {
			t.Fatalf("values = %d", len(r.Values()))
		}
	}
}

func TestBuildMissingKeysAreNull(t *testing.T) {
	r := Build(map[string]any{"Matricula": "12345", "Proprietario": "Jane Doe"})
	for _, col := range wantColumns[2:] {
		if v, ok := r.Get(col); ok {
			t.Errorf("%s = %q, want null", col, v)
		}
	}
}

func TestBuildRenamesCPF(t *testing.T) {
	r := Build(map[string]any{"CPF_Proprietario": "123.456.789-00", "CPF": "ignored"})
	if v, _ := r.Get("CPF"); v != "123.456.789-00" {
		t.Errorf("CPF = %q", v)
	}
	if _, ok := r.Get("CPF_Proprietario"); ok {
		t.Error("CPF_Proprietario should not be a column")
	}
}

func TestBuildIgnoresUnknownKeys(t *testing.T) {
	a := Build(map[string]any{"Matricula": "1"})
	b := Build(map[string]any{"Matricula": "1", "Extra": "x", "matricula": "2"})
	if !slices.Equal(a.Strings("<nil>"), b.Strings("<nil>")) {
		t.Errorf("unknown keys changed the row: %v vs %v", a.Strings("<nil>"), b.Strings("<nil>"))
	}
}

func TestBuildStringifiesNonStrings(t *testing.T) {
	r := Build(map[string]any{
		"Area_Terreno": json.Number("360.50"),
		"Livro":        float64(2),
		"Folha":        true,
		"Observacoes":  map[string]any{"onus": []any{"hipoteca"}},
		"Estado":       "",
	})
	cases := map[string]string{
		"Area_Terreno": "360.50",
		"Livro":        "2",
		"Folha":        "true",
		"Observacoes":  `{"onus":["hipoteca"]}`,
		"Estado":       "",
	}
	for col, want := range cases {
		if v, ok := r.Get(col); !ok || v != want {
			t.Errorf("%s = %q (%v), want %q", col, v, ok, want)
		}
	}
}

func TestRowJSONKeepsOrderAndNulls(t *testing.T) {
	r := Build(map[string]any{"Matricula": "1", "Observacoes": "fim"})
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.HasPrefix(s, `{"Matricula":"1","Proprietario":null,"CPF":null`) || !strings.HasSuffix(s, `"Observacoes":"fim"}`) {
		t.Errorf("json = %s", s)
	}
	var back Row
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(back.Strings("<nil>"), r.Strings("<nil>")) {
		t.Errorf("round trip changed row: %v", back.Strings("<nil>"))
	}
}

func TestWriteCSVHeaderAndNulls(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Build(map[string]any{"Matricula": "12345", "Municipio": "São Paulo, SP"})); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one line, got %q", buf.String())
	}
	if lines[0] != strings.Join(wantColumns, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `12345,,,,"São Paulo, SP",,,,,,,,` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestReadCSVRejectsForeignHeader(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2\n")); err == nil {
		t.Fatal("expected header mismatch")
	}
}
