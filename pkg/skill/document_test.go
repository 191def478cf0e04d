package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `---
name: credit_risk
description: Credit risk evaluation playbook
---

# Credit Risk Evaluation

## Role

You are a conservative credit analyst for a retail bank.

## Core Capabilities

- assess: flags applicants whose debt-to-income ratio exceeds the bank's appetite
- check_limit evaluates requested amounts against tier limits

## Constraints

Never approve an application without both income and debt figures.
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "credit_risk", doc.Meta.Name)
	assert.Equal(t, "Credit risk evaluation playbook", doc.Meta.Description)
	assert.Equal(t, "Credit Risk Evaluation", doc.Title)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Role", doc.Sections[0].Heading)
	assert.Contains(t, doc.Sections[0].Body, "conservative credit analyst")
	assert.Equal(t, "Core Capabilities", doc.Sections[1].Heading)
	assert.Equal(t, "Constraints", doc.Sections[2].Heading)

	assert.NotContains(t, doc.Raw(), "description:")
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc, err := ParseDocument([]byte("# Title\n\n## Only Section\n\nBody text.\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Meta.Name)
	assert.Equal(t, "Title", doc.Title)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Body text.", doc.Sections[0].Body)
}

func TestSectionMentioning(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	s, ok := doc.SectionMentioning("assess")
	require.True(t, ok)
	assert.Equal(t, "Core Capabilities", s.Heading)

	_, ok = doc.SectionMentioning("no_such_procedure")
	assert.False(t, ok)
}

func TestSectionMentioningWholeWordsOnly(t *testing.T) {
	doc, err := ParseDocument([]byte("# Title\n\n## Review\n\nThe assessment workflow is manual today.\n\n## Scoring\n\nCall assess with income and debt.\n"))
	require.NoError(t, err)

	s, ok := doc.SectionMentioning("assess")
	require.True(t, ok)
	assert.Equal(t, "Scoring", s.Heading)
}

func TestDescriptionFor(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	desc, ok := doc.DescriptionFor("check_limit")
	require.True(t, ok)
	assert.Contains(t, desc, "tier limits")

	_, ok = doc.DescriptionFor("ghost")
	assert.False(t, ok)
}
