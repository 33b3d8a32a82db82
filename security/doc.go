// Package security builds TLS configurations for the service listeners and
// for service-to-service calls.
//
// ServerConfig terminates TLS on a listener and can require client
// certificates. ClientConfig trusts a private CA and can present a client
// certificate:
//
//	srvTLS := security.ServerConfig{CertFile: "server.pem", KeyFile: "server-key.pem", ClientCAFile: "ca.pem"}
//	cliTLS := security.ClientConfig{CAFile: "ca.pem", CertFile: "client.pem", KeyFile: "client-key.pem"}
package security
