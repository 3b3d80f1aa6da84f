// Package remote provides the SSH transport for deploy targets.
//
// A Client wraps a single authenticated SSH connection to the deploy host
// and runs each command in its own session, so one connection serves the
// whole deploy stage (copy compose file, copy env file, pull, up). Command
// results carry stdout, stderr, and the remote exit code separately from
// transport errors: a command that runs and exits non-zero is not an SSH
// failure, it is a stage failure the runner reports through Result.Code.
//
// File transfer uses the scp sink protocol over the same connection, which
// keeps the remote host requirements to a stock sshd plus scp.
//
// Host keys are verified against known_hosts by default. Targets without a
// recorded host key need InsecureIgnoreHostKey, which is logged loudly and
// intended for lab hosts only.
package remote
