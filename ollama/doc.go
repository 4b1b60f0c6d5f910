// Package ollama streams text generations from an Ollama server.
//
// A generation is a single POST to /api/generate with "stream": true. The server
// answers with newline separated JSON objects, each carrying the next fragment
// of text in its "response" field:
//
//	{"model":"llama3","response":"The","done":false}
//	{"model":"llama3","response":" sky","done":false}
//	{"model":"llama3","response":"","done":true,"done_reason":"stop"}
//
// The client does not decode these objects. It hands the body, in whatever chunks
// the transport delivers, to a stream.Accumulator feeding three extractors that
// pick out "response", "error" and "done_reason". Fragments are therefore
// available to the caller as soon as their closing quote arrives.
//
// Example:
//
//	client, err := ollama.New(ollama.Config{Host: "http://localhost:11434"})
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Generate(ctx, ollama.GenerateRequest{
//	    Model:  "llama3",
//	    Prompt: "Why is the sky blue?",
//	}, func(fragment string) {
//	    fmt.Print(fragment)
//	})
package ollama
