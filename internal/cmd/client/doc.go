// Package client provides the `auditlog` command-line client.
//
// The CLI talks to the gRPC endpoint of an auditlog server. It is primarily
// intended for developers and operators.
//
// # Address and credentials
//
// The gRPC address is read from AUDITLOG_GRPC (default 127.0.0.1:50051).
// Writes need a caller: pass --token (or AUDITLOG_TOKEN) when the server
// runs jwt auth, or --account (or AUDITLOG_ACCOUNT) in header mode. Reads
// are open.
//
// Usage
//
//	auditlog token issue --subject alice --secret "$AUDITLOG_AUTH_SECRET"
//
//	auditlog log save --account alice \
//	    --log-id invoices --period 2024-06 \
//	    --title "login" --content '{"ip":"10.0.0.1"}'
//
//	auditlog log get --log-id invoices --period 2024-06
//	auditlog log get --log-id invoices --period 2024-06 --filter 'title == "login"'
//
//	auditlog log owner --log-id invoices
//	auditlog log periods --log-id invoices
//
//	# follow notifications, resuming a named cursor
//	auditlog log watch --group ops
//	auditlog log watch --since 2024-06-01T00:00:00Z --limit 10
//
// Notes
//
//   - Identifier and field flags are UTF-8 text unless --encoding base64.
//   - Byte fields that are not valid UTF-8 print under a _b64 key.
//   - --raw prints the protojson form of the wire message.
package client
