package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
	"github.com/clinicdesk/clinicdesk/internal/platform/llm"
)

// Symptoms that bump an intake straight to HIGH. Matching is against the
// whole lowercased symptom string, not substrings: "chest pain when running"
// does not match.
var highPrioritySymptoms = map[string]bool{
	"chest pain": true,
	"stroke":     true,
}

// Substrings routed to cardiology.
var cardiologySubstrings = []string{"chest pain", "shortness of breath"}

const elderlyAgeThreshold = 65

const defaultSpecialty = "General Medicine"

type Service struct {
	llm llm.Client
}

func NewService(client llm.Client) *Service {
	return &Service{llm: client}
}

// AssessPriority classifies an intake as HIGH, MEDIUM, or LOW.
//
// HIGH wins over everything: an 80-year-old with chest pain is HIGH, not
// MEDIUM. MEDIUM applies when the patient is over 65 or reports any existing
// condition. A present-but-empty symptom list is a valid LOW intake; an
// absent one is rejected.
func (s *Service) AssessPriority(in Intake) (string, error) {
	if in.Symptoms == nil {
		return "", fault.New(fault.InvalidInput, "symptoms must be an array")
	}

	for _, sym := range in.Symptoms {
		if highPrioritySymptoms[strings.ToLower(sym)] {
			return PriorityHigh, nil
		}
	}
	if in.PatientAge > elderlyAgeThreshold || len(in.ExistingConditions) > 0 {
		return PriorityMedium, nil
	}
	return PriorityLow, nil
}

// RecommendSpecialty maps symptoms to a specialty with fixed substring
// rules: "I have chest pain" routes to cardiology, "itchy skin" to
// dermatology. First matching rule wins, tested in a fixed order.
func (s *Service) RecommendSpecialty(symptoms []string) (*Recommendation, error) {
	if symptoms == nil {
		return nil, fault.New(fault.InvalidInput, "symptoms must be an array")
	}

	specialty := defaultSpecialty
	lowered := make([]string, len(symptoms))
	for i, sym := range symptoms {
		lowered[i] = strings.ToLower(sym)
	}

	switch {
	case anyContains(lowered, cardiologySubstrings...):
		specialty = "Cardiology"
	case anyContains(lowered, "skin"):
		specialty = "Dermatology"
	case anyContains(lowered, "mental"):
		specialty = "Psychiatry"
	}

	return &Recommendation{Specialty: specialty}, nil
}

func anyContains(symptoms []string, substrs ...string) bool {
	for _, s := range symptoms {
		for _, sub := range substrs {
			if strings.Contains(s, sub) {
				return true
			}
		}
	}
	return false
}

const recommendSystemPrompt = `You are a medical assistant. Your task is to recommend the most appropriate medical specialty based on the symptoms provided.
Respond with only the medical specialty (e.g., "Cardiologist", "Dermatologist", "General Practitioner", etc.).

For example:
- For chest pain, shortness of breath: "Cardiologist"
- For skin rashes, moles: "Dermatologist"
- For headaches, dizziness: "Neurologist"

Keep your response concise and only name the specialty without additional text.`

// RecommendSpecialtyAdvanced asks the completion provider for a specialty.
// Unlike the rule-based path, an empty symptom list is rejected here: there
// is nothing to prompt with.
func (s *Service) RecommendSpecialtyAdvanced(ctx context.Context, symptoms []string) (*Recommendation, error) {
	if len(symptoms) == 0 {
		return nil, fault.New(fault.InvalidInput, "please provide an array of symptoms")
	}

	specialty, err := s.llm.Complete(ctx, llm.Prompt{
		System:      recommendSystemPrompt,
		User:        "Based on these symptoms, what type of doctor should I see: " + strings.Join(symptoms, ", "),
		MaxTokens:   50,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Specialty: specialty,
		Message: fmt.Sprintf("Based on your symptoms, we recommend seeing a %s. "+
			"This is just a suggestion - please consult with your primary care physician for proper referrals.", specialty),
	}, nil
}

const chatSystemPrompt = `You are a helpful medical assistant chatbot.
Your primary function is to provide general health information and guidance.

Rules:
1. Always include a disclaimer that you are not a real doctor and the user should consult a medical professional for proper diagnosis and treatment.
2. For minor issues, you can suggest general remedies or over-the-counter solutions.
3. For anything that seems serious, advise seeing a doctor immediately.
4. If the symptoms indicate an emergency (chest pain, difficulty breathing, severe bleeding, etc.), advise calling emergency services.
5. If asked about specific medications, only provide general information about common usage, not specific dosages.
6. Never diagnose conditions with certainty.
7. Be compassionate and clear in your responses.

Remember: Your advice is informational only and not a substitute for professional medical care.`

// Chat relays a free-form user message to the assistant.
func (s *Service) Chat(ctx context.Context, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", fault.New(fault.InvalidInput, "missing user message")
	}
	return s.llm.Complete(ctx, llm.Prompt{
		System:      chatSystemPrompt,
		User:        userMessage,
		MaxTokens:   500,
		Temperature: 0.7,
	})
}
