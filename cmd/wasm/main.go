//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"
	"unicode/utf8"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/adapter/memstore"
	"fraktag/internal/domain"
	"fraktag/internal/port"
	"fraktag/internal/usecase"
)

var (
	store *memstore.MemoryStore
	strat port.ChunkingStrategy
)

func init() {
	store = memstore.NewMemoryStore()
	strat, _ = chunker.New(domain.StrategyRecursive)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("fraktagChunk", js.FuncOf(chunkText))
	js.Global().Set("fraktagIngest", js.FuncOf(ingestContent))
	js.Global().Set("fraktagStats", js.FuncOf(getStats))
	js.Global().Set("fraktagClear", js.FuncOf(clearStore))
	js.Global().Set("fraktagStrategies", js.FuncOf(listStrategies))

	<-c
}

// chunkText(text, [strategy], [optionsJSON]) returns a ChunkingResult.
func chunkText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: fraktagChunk(text, [strategy], [optionsJSON])")
	}

	s := strat
	if len(args) > 1 && args[1].String() != "" {
		var err error
		s, err = chunker.New(domain.StrategyID(args[1].String()))
		if err != nil {
			return makeError(err.Error())
		}
	}

	var opts domain.ChunkingOptions
	if len(args) > 2 && args[2].String() != "" {
		if err := json.Unmarshal([]byte(args[2].String()), &opts); err != nil {
			return makeError("invalid options: " + err.Error())
		}
	}

	result, err := chunker.Run(s, args[0].String(), opts)
	if err != nil {
		return makeError("chunking failed: " + err.Error())
	}
	out, _ := json.Marshal(result)
	return string(out)
}

func ingestContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: fraktagIngest(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()

	docID := usecase.DocID(filename)
	chunks, err := strat.Chunk(content, domain.ChunkingOptions{})
	if err != nil {
		return makeError("chunking failed: " + err.Error())
	}

	err = store.PutDoc(domain.Document{
		ID:       docID,
		Path:     filename,
		ModTime:  time.Now(),
		Strategy: strat.Name(),
		Runes:    utf8.RuneCountInString(content),
	})
	if err != nil {
		return makeError("storing document failed: " + err.Error())
	}
	if _, err := store.PutChunks(docID, chunks); err != nil {
		return makeError("storing chunks failed: " + err.Error())
	}

	stats, err := usecase.ComputeStats(store, strat.EstimateTokens)
	if err == nil {
		store.UpdateStats(stats)
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"chunks":   len(chunks),
		"filename": filename,
	})
}

func clearStore(this js.Value, args []js.Value) interface{} {
	store = memstore.NewMemoryStore()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats, _ := store.GetStats()
	docs, _ := store.ListDocs()

	filenames := make([]string, len(docs))
	for i, doc := range docs {
		filenames[i] = doc.Path
	}

	return makeResult(map[string]interface{}{
		"totalDocs":         stats.TotalDocs,
		"totalChunks":       stats.TotalChunks,
		"totalTokens":       stats.TotalTokens,
		"avgTokensPerChunk": stats.AvgTokensPerChunk,
		"files":             filenames,
	})
}

func listStrategies(this js.Value, args []js.Value) interface{} {
	ids := chunker.Available()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return makeResult(map[string]interface{}{
		"strategies": names,
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
