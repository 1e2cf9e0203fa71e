// Package gimme is a minimal HTTP/HTTPS request client.
//
// It performs a request described by an Options value, transparently follows
// redirects up to a bound, applies an overall timeout, and returns the final
// status, headers, and fully buffered body — or a structured *Error.
//
// # Quick Start
//
// For one-off requests, use the package-level Request function:
//
//	res, err := gimme.Request(ctx, gimme.Options{
//	    URL: "example.com/api/ping",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Status, res.Body)
//
// A URL without a scheme defaults to http://. GET bodies are encoded into
// the query string; non-GET bodies are sent as form or JSON payloads
// depending on Options.ContentType.
//
// # Configured Clients
//
// Create a Client when you need custom transport settings, debug logging,
// instrumentation, a circuit breaker, or rate limiting:
//
//	client := gimme.New(
//	    gimme.WithServiceName("billing-client"),
//	    gimme.WithDebug(),
//	)
//	res, err := client.Do(ctx, gimme.Options{
//	    URL:         "https://api.example.com/charges",
//	    Method:      "POST",
//	    ContentType: gimme.ContentTypeJSON,
//	    Body:        map[string]any{"amount": 1200},
//	})
//
// # Error Model
//
// All failures surface as *Error values carrying a short symbolic code and a
// human-readable message. Input errors and HTTP-level failures use code
// "ERR"; connection-level failures carry an errno-style code such as
// ECONNREFUSED or ENOTFOUND:
//
//	res, err := gimme.Request(ctx, opts)
//	var gerr *gimme.Error
//	if errors.As(err, &gerr) {
//	    log.Printf("request failed: %s (%s)", gerr.Msg, gerr.Code)
//	}
//
// # Scope
//
// gimme deliberately does not pool connections across calls, handle cookies,
// negotiate compression, retry failed requests, or stream response bodies.
// Each call owns its own attempt state and nothing persists once it returns.
package gimme
