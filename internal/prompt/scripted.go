package prompt

import (
	"errors"
	"fmt"
	"sync"
)

// ErrScriptExhausted is returned when a Scripted prompter runs out of answers.
var ErrScriptExhausted = errors.New("no scripted answer left")

// Scripted answers questions from queues, in order, and records what was asked.
type Scripted struct {
	mu        sync.Mutex
	confirms  []bool
	secrets   []string
	questions []string
	prompts   []string
}

// NewScripted creates a prompter with queued confirmation answers.
func NewScripted(confirms ...bool) *Scripted {
	return &Scripted{confirms: confirms}
}

// WithSecrets queues answers for AskSecret.
func (s *Scripted) WithSecrets(secrets ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets = append(s.secrets, secrets...)
	return s
}

func (s *Scripted) Confirm(question string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = append(s.questions, question)
	if len(s.confirms) == 0 {
		return false, fmt.Errorf("confirm %q: %w", question, ErrScriptExhausted)
	}

	answer := s.confirms[0]
	s.confirms = s.confirms[1:]
	return answer, nil
}

func (s *Scripted) AskSecret(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.secrets) == 0 {
		return "", fmt.Errorf("secret %q: %w", prompt, ErrScriptExhausted)
	}

	answer := s.secrets[0]
	s.secrets = s.secrets[1:]
	return answer, nil
}

// Questions returns the confirmation questions asked so far.
func (s *Scripted) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

// SecretPrompts returns the secret prompts shown so far.
func (s *Scripted) SecretPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
