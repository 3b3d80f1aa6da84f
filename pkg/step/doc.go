// Package step implements the built-in behaviors pipeline stages bind to.
//
// A Step receives a Context carrying the run environment, the stage's
// interpolated parameters, the invocation directory, the run workspace,
// and output streams. Steps treat external tools (container builder,
// registry client, compose) as opaque commands: they are resolved from
// PATH and invoked as-is, and a non-zero exit surfaces as an ExitError
// that the runner records as the stage's exit code.
//
// The Registry maps step type names to implementations; Defaults()
// returns a registry holding every built-in:
//
//	exec               run an external command in the invocation directory
//	image-build        build a container image with the configured builder
//	image-push         push a container image
//	registry-login     probe registry reachability and credentials
//	bundle-push        publish the workspace bundle as an OCI artifact
//	remote-copy        copy files to the deploy host over SSH
//	remote-exec        run a command on the deploy host over SSH
//	compose-deploy     copy compose inputs and run compose on the host
//	workspace-cleanup  remove the run workspace
//
// SSH-backed steps take their connection settings from stage parameters
// (ssh-user, ssh-key, known-hosts, insecure-host-key) with SKIFF_SSH_USER,
// SKIFF_SSH_KEY, SKIFF_KNOWN_HOSTS, and SKIFF_INSECURE_HOST_KEY as
// environment fallbacks.
package step
