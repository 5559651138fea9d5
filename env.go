package main

import (
	"log"
	"os"
)

var (
	requiredEnvs = []string{"PORT", "ENV"}

	// AMQP_URL enables the queue ingress when set.
	optionalEnvs = []string{"AMQP_URL"}
)

func missingEnvVars(envs []string) []string {
	var missing []string
	for _, env := range envs {
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}

	return missing
}

func checkEnvVars() {
	for _, env := range missingEnvVars(requiredEnvs) {
		log.Fatalln("environment variable", env, "is not specified but is required")
	}

	for _, env := range missingEnvVars(optionalEnvs) {
		log.Println("environment variable", env, "is not specified, the feature it enables is off")
	}
}
