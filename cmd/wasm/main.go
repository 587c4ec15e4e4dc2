//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"
	"time"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/chunker"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/adapter/minifier"
	"tokentrim/internal/adapter/summariser"
	"tokentrim/internal/domain"
	"tokentrim/internal/usecase"
)

var (
	compress *usecase.CompressUseCase
	codec    *usecase.LosslessUseCase
	analyze  *usecase.AnalyzeUseCase
)

func init() {
	est := analyzer.NewEstimator()
	mini := minifier.NewMinifier(est)
	ch := chunker.NewCompositeChunker(0, est, true)
	compress = usecase.NewCompressUseCase(mini, ch, summariser.NewSummariser(mini, ch, est), est, nil)
	codec = usecase.NewLosslessUseCase(lossless.NewCodec(), nil, nil)
	analyze = usecase.NewAnalyzeUseCase(est)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("tokentrimCompress", js.FuncOf(compressContent))
	js.Global().Set("tokentrimEstimate", js.FuncOf(estimateContent))
	js.Global().Set("tokentrimExpand", js.FuncOf(expandContent))
	js.Global().Set("tokentrimLosslessEncode", js.FuncOf(losslessEncode))
	js.Global().Set("tokentrimLosslessDecode", js.FuncOf(losslessDecode))

	<-c
}

func compressContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: tokentrimCompress(filename, content, [aggressive])")
	}

	aggressive := len(args) > 2 && args[2].Truthy()
	report := compress.Compress(context.Background(), usecase.CompressInput{
		Text:       args[1].String(),
		Filename:   args[0].String(),
		Aggressive: aggressive,
	})

	result, err := json.Marshal(report)
	if err != nil {
		return makeError("marshal failed: " + err.Error())
	}
	return string(result)
}

func estimateContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: tokentrimEstimate(filename, content)")
	}
	a := analyze.AnalyzeFile(args[0].String(), []byte(args[1].String()))
	return makeResult(map[string]interface{}{
		"fileName":      a.FileName,
		"fileSize":      a.FileSize,
		"language":      a.Language,
		"tokenEstimate": a.TokenEstimate,
	})
}

func expandContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: tokentrimExpand(code, decodeMapJSON)")
	}
	var decodeMap map[string]string
	if err := json.Unmarshal([]byte(args[1].String()), &decodeMap); err != nil {
		return makeError("invalid decode map: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"decoded": usecase.ExpandHashReferences(args[0].String(), decodeMap),
	})
}

func losslessEncode(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: tokentrimLosslessEncode(filename, content)")
	}
	filename := args[0].String()
	bundle := codec.Encode([]domain.SourceFile{{
		Name:     filename,
		Language: analyzer.DetectLanguage(filename),
		Text:     args[1].String(),
	}}, time.Now())

	data, err := lossless.MarshalBundle(bundle, false)
	if err != nil {
		return makeError("encode failed: " + err.Error())
	}
	return string(data)
}

func losslessDecode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: tokentrimLosslessDecode(bundle)")
	}
	bundle, err := lossless.ParseBundle([]byte(args[0].String()))
	if err != nil {
		return makeError("parse failed: " + err.Error())
	}
	files, err := codec.Decode(bundle)
	if err != nil {
		return makeError("decode failed: " + err.Error())
	}

	out := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]interface{}{
			"filename": f.Name,
			"language": f.Language,
			"content":  f.Text,
		})
	}
	return makeResult(map[string]interface{}{
		"files": out,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
