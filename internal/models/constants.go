package models

const (
	// QuestionMarkerRegex finds the start of each question block.
	QuestionMarkerRegex = `(?m)^[ \t]*Q\d+\.`
	// MCQBlockRegex matches the body of one block after its Q<k>. marker.
	MCQBlockRegex = `(?s)^\s*(.*?)\nA\.\s*(.*?)\nB\.\s*(.*?)\nC\.\s*(.*?)\nD\.\s*(.*?)\nAnswer:\s*([A-D])[ \t]*\nExplanation:[ \t]*(.*)$`

	NamespaceChunkFormat = "%s_chunk_%d"
	MetadataText         = "text"
	MetadataChunkIndex   = "chunk_index"

	SystemPrompt = "You are an expert in educational content generation."
)

// OptionLabels are the four option labels in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

var (
	MCQPromptTemplate = `Based on the following document content, generate %d multiple-choice questions (MCQs) to test understanding. For each question, provide:
- The question
- Exactly four answer options labeled A, B, C, and D
- The correct answer letter (A/B/C/D) and a brief explanation

Use exactly this format for every question and nothing else:
Q1. <question>
A. <option>
B. <option>
C. <option>
D. <option>
Answer: <letter>
Explanation: <short explanation>

Document:
%s`
)
