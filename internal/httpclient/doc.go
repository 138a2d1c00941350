// Package httpclient builds the requests and the pooled client salvo fires
// them with.
//
// # Request Building
//
// [NewRequestBuilder] validates the base URL and headers once per run. Each
// scenario endpoint is then resolved against the base URL and turned into a
// request:
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	target, err := builder.Target("/health")
//	req, err := builder.Build(ctx, target)
//
// # HTTP Client
//
// [NewClient] creates a keep-alive client sized to the concurrency ceiling of
// a burst. It has no client-level timeout; the executor bounds every request
// with a context deadline that also covers reading the body.
//
//	client := httpclient.NewClient(200)
//	defer client.CloseIdleConnections()
package httpclient
