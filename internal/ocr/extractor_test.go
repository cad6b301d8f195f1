package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

func TestExtractSendsImageAndTrims(t *testing.T) {
	var got []llm.Message
	client := llm.CompleterFunc(func(_ context.Context, model string, msgs []llm.Message, _ llm.Options) (string, error) {
		got = msgs
		return "\n  CERTIDÃO DE INTEIRO TEOR  \n", nil
	})
	e := NewExtractor(Config{Model: "llama3.2-vision"}, client, nil)
	res, err := e.Extract(context.Background(), Image{Source: "a.png", Data: []byte("hello")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "CERTIDÃO DE INTEIRO TEOR" {
		t.Errorf("text = %q", res.Text)
	}
	if len(got) != 1 || got[0].Role != "user" || got[0].Content != llm.ExtractionInstruction {
		t.Fatalf("unexpected messages: %+v", got)
	}
	if len(got[0].Images) != 1 || got[0].Images[0] != "aGVsbG8=" {
		t.Errorf("images = %v", got[0].Images)
	}
}

func TestExtractNormalizes(t *testing.T) {
	client := llm.CompleterFunc(func(context.Context, string, []llm.Message, llm.Options) (string, error) {
		return "Matrícula\t 1\r\n\r\n\r\n-----\nLivro  2", nil
	})
	e := NewExtractor(Config{Model: "m", Normalize: true}, client, nil)
	res, err := e.Extract(context.Background(), Image{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Matrícula 1\n\nLivro 2" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractWrapsFailure(t *testing.T) {
	boom := errors.New("eof")
	client := llm.CompleterFunc(func(context.Context, string, []llm.Message, llm.Options) (string, error) {
		return "", boom
	})
	_, err := NewExtractor(Config{Model: "m"}, client, nil).Extract(context.Background(), Image{Data: []byte("x")})
	if !errors.Is(err, common.ErrExtractionFailed) || !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
}
