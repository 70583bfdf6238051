package service

import (
	"strings"
	"sync"

	"github.com/anubhav0108/timetable-ace-api/pkg/export"
)

// MaterialTemplate is the lecture content rendered as notes and slides.
type MaterialTemplate struct {
	Notes  []export.Section
	Slides []export.Slide
}

// MaterialRegistry resolves lecture content by course name or code.
type MaterialRegistry struct {
	mu        sync.RWMutex
	templates map[string]MaterialTemplate
	fallback  MaterialTemplate
}

// NewMaterialRegistry returns a registry preloaded with the built-in content.
func NewMaterialRegistry() *MaterialRegistry {
	r := &MaterialRegistry{
		templates: make(map[string]MaterialTemplate),
		fallback:  genericMaterial,
	}
	r.Register("Data Structures", dataStructuresMaterial)
	return r
}

// Register binds a template to a course name or code, case-insensitively.
func (r *MaterialRegistry) Register(key string, tmpl MaterialTemplate) {
	r.mu.Lock()
	r.templates[normaliseMaterialKey(key)] = tmpl
	r.mu.Unlock()
}

// Lookup returns the template of a course, trying the name first and then the code.
func (r *MaterialRegistry) Lookup(courseName, courseCode string) MaterialTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range []string{courseName, courseCode} {
		if key == "" {
			continue
		}
		if tmpl, ok := r.templates[normaliseMaterialKey(key)]; ok {
			return tmpl
		}
	}
	return r.fallback
}

func normaliseMaterialKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

var dataStructuresMaterial = MaterialTemplate{
	Notes: []export.Section{
		{
			Heading: "1. What is a Data Structure?",
			Lines: []string{
				"A data structure is a specialized format for organizing, processing, retrieving, and storing data. It's a way of arranging data on a computer so that it can be accessed and updated efficiently. Choosing the right data structure is a crucial part of designing efficient algorithms and is fundamental to computer science.",
			},
		},
		{
			Heading: "2. The Array",
			Lines: []string{
				"An array is a collection of items of the same data type stored at contiguous memory locations. This is its key feature, as it allows for fast random access based on an index.",
				"- Access Time (by index): O(1). Because memory is contiguous, the address of any element can be calculated instantly from its index.",
				"- Search Time (unsorted): O(n). You may have to check every element in the worst case.",
				"- Insertion/Deletion: O(n). To insert or delete an element in the middle, you must shift all subsequent elements, which is very inefficient.",
			},
		},
		{
			Heading: "3. The Linked List",
			Lines: []string{
				"A linked list consists of nodes where each node contains data and a pointer to the next node in the sequence. It does not store elements in contiguous locations, which gives it different performance characteristics.",
				"- Access Time: O(n). To find an element, you must start from the head and traverse the list one by one.",
				"- Insertion/Deletion (at ends): O(1). If you have a pointer to the head/tail, adding or removing a node is very fast.",
				"- Dynamic Size: Linked lists can grow and shrink dynamically, which is a major advantage over arrays which have a fixed size.",
			},
		},
	},
	Slides: []export.Slide{
		{Title: "Agenda", Bullets: []string{
			"What are Data Structures?",
			"Arrays vs. Linked Lists",
			"Understanding Big O Notation",
			"Overview of Stacks & Queues",
		}},
		{Title: "Arrays vs. Linked Lists", Bullets: []string{
			"Arrays: Store elements in contiguous memory locations.",
			"Arrays: Excellent for fast, O(1) random access using an index.",
			"Arrays: Inefficient for insertions/deletions in the middle (O(n)).",
			"Linked Lists: Store elements as nodes with pointers to the next node.",
			"Linked Lists: Slow for access (O(n)), as you must traverse the list.",
			"Linked Lists: Very efficient for insertions/deletions at ends (O(1)).",
		}},
		{Title: "Big O Notation", Bullets: []string{
			"O(1) - Constant Time: Accessing an array element.",
			"O(log n) - Logarithmic Time: Binary search.",
			"O(n) - Linear Time: Searching an unsorted list.",
			"O(n^2) - Quadratic Time: Bubble sort.",
		}},
		{Title: "Thank You & Questions?"},
	},
}

var genericMaterial = MaterialTemplate{
	Notes: []export.Section{
		{
			Heading: "Introduction to the Topic",
			Lines: []string{
				"This document contains lecture notes for the course. It covers the fundamental concepts, key principles, and practical applications relevant to the subject matter. The purpose of these notes is to provide a structured and comprehensive resource to support your learning. Please review these notes before each class.",
			},
		},
		{
			Heading: "Key Concept A: In-depth Analysis",
			Lines: []string{
				"This section would delve into the first major concept of the lecture. It would typically include formal definitions, historical context, and the foundational theories. Key terminology would be highlighted, and the relationships between different sub-concepts would be explored to build a solid theoretical framework for the student.",
			},
		},
		{
			Heading: "Practical Application: Case Study",
			Lines: []string{
				"Here, we would bridge theory and practice. This part of the notes would present a real-world case study or a detailed example problem. It would walk the student through the application of the theories discussed earlier, showing how they are used to solve practical problems in the field. This reinforces learning and demonstrates the relevance of the material.",
			},
		},
	},
	Slides: []export.Slide{
		{Title: "Agenda", Bullets: []string{
			"Introduction to the Topic",
			"Core Concept 1: Detailed Explanation",
			"Core Concept 2: Detailed Explanation",
			"Practical Applications and Case Studies",
			"Summary and Q&A",
		}},
		{Title: "Core Concept 1", Bullets: []string{
			"This slide would contain a detailed explanation of the first major concept of the lecture. It would include definitions, diagrams, and illustrative examples to ensure the topic is understood clearly by all students.",
		}},
		{Title: "Practical Applications", Bullets: []string{
			"This section bridges theory and practice. It would showcase real-world examples, case studies, or problems where the discussed concepts are applied. This helps students understand the relevance and importance of the material in a professional context.",
		}},
		{Title: "Thank You & Questions?"},
	},
}
