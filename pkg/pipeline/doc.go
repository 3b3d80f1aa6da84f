// Package pipeline defines the delivery pipeline document model.
//
// A pipeline is a YAML document in the standard header convention listing
// the stages of a delivery run and the always-run post stages:
//
//	apiVersion: skiff.nvidia.com/v1alpha1
//	kind: Pipeline
//	metadata:
//	  name: ship
//	env:
//	  COMPOSE_FILE: docker-compose.yaml
//	stages:
//	  - name: build
//	    step: image-build
//	    timeout: 10m
//	    with:
//	      image: ${IMAGE_REF}
//	post:
//	  - name: cleanup
//	    step: workspace-cleanup
//
// Each stage binds a name to one of the built-in step types and its
// parameters. Stage order is execution order; post stages run after the
// main stages regardless of outcome.
//
// Values in env and with support ${VAR} interpolation against the process
// environment plus the variables the runner injects (SKIFF_RUN_ID,
// BUILD_TAG, IMAGE_REF, WORKSPACE). Interpolation happens once, before the
// first stage runs, and an unresolved reference fails the run before any
// stage starts.
//
// Default returns the built-in "ship" pipeline: login, build, push, deploy
// over SSH with compose, and a cleanup post stage, parameterized entirely
// by the REGISTRY_NAMESPACE, DEPLOY_HOST, COMPOSE_FILE, ENV_FILE, JOB_NAME,
// and BUILD_NUMBER environment variables.
package pipeline
